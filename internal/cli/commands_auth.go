package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/otsembank/otsem/pkg/cryptox"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/otsembank/otsem/pkg/otsemsdk"
	"github.com/otsembank/otsem/pkg/routegate"
)

// PasswordEnv supplies the login password when -password is not given.
const PasswordEnv = "OTSEM_PASSWORD"

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (default $"+PasswordEnv+")")
	code := fs.String("code", "", "two-factor code")
	secret := fs.String("totp-secret", e.cfg.TOTPSecret, "generate the two-factor code from this secret")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv(PasswordEnv)
	}
	if err := required(fs, "email", "password"); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	user, err := s.client.Login(ctx, otsemsdk.LoginRequest{
		Email:         *email,
		Password:      *password,
		TwoFactorCode: *code,
		TOTPSecret:    *secret,
	})
	if err != nil {
		return err
	}

	return e.output(user, func(w io.Writer) {
		fmt.Fprintf(w, "Logged in as %s <%s>\n", user.Name, user.Email)
	})
}

func cmdLogout(ctx context.Context, e *env, args []string) error {
	if err := parse(newFlagSet(e, "logout"), args); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}
	if err := s.client.Logout(ctx); err != nil {
		return err
	}

	return e.output(map[string]bool{"loggedOut": true}, func(w io.Writer) {
		fmt.Fprintln(w, "Logged out")
	})
}

func cmdMe(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "me")
	cached := fs.Bool("cached", false, "show the cached profile without calling the API")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	var user *otsemsdk.User
	if *cached {
		var ok bool
		user, ok, err = s.client.CachedUser(ctx)
		if err == nil && !ok {
			err = fmt.Errorf("no cached profile, run `otsem login`")
		}
	} else {
		user, err = s.client.Me(ctx)
	}
	if err != nil {
		return err
	}

	return e.output(user, func(w io.Writer) {
		fmt.Fprintf(w, "%s <%s>\n", user.Name, user.Email)
		fmt.Fprintf(w, "  id:      %s\n", user.ID)
		if user.Role != "" {
			fmt.Fprintf(w, "  role:    %s\n", user.Role)
		}
		if user.AccountStatus != "" {
			fmt.Fprintf(w, "  status:  %s\n", user.AccountStatus)
		}
		fmt.Fprintf(w, "  balance: %s\n", otsemsdk.FormatBRL(user.BalanceBRL))
	})
}

// tokenStatus is what the stored access token claims, unverified.
type tokenStatus struct {
	LoggedIn    bool      `json:"loggedIn"`
	Subject     string    `json:"subject,omitempty"`
	Role        string    `json:"role,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	Expired     bool      `json:"expired"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func cmdStatus(ctx context.Context, e *env, args []string) error {
	if err := parse(newFlagSet(e, "status"), args); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	var st tokenStatus
	if access, ok := s.tokens.AccessToken(ctx); ok {
		st.LoggedIn = true
		st.Fingerprint = cryptox.Fingerprint(access)

		claims, err := jwtx.DecodeUnverified(access)
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Subject = claims.Subject
			st.Role = claims.Role
			st.ExpiresAt = time.Unix(claims.ExpiresAtUnix(), 0).UTC()
			st.Expired = claims.ValidateExpiry() != nil
		}
	}

	return e.output(st, func(w io.Writer) {
		if !st.LoggedIn {
			fmt.Fprintln(w, "Not logged in")
			return
		}
		fmt.Fprintf(w, "token:   %s\n", st.Fingerprint)
		if st.Error != "" {
			fmt.Fprintf(w, "invalid: %s\n", st.Error)
			return
		}
		fmt.Fprintf(w, "subject: %s\n", st.Subject)
		fmt.Fprintf(w, "role:    %s\n", st.Role)
		state := "valid"
		if st.Expired {
			state = "expired"
		}
		fmt.Fprintf(w, "expires: %s (%s)\n", st.ExpiresAt.Format(time.RFC3339), state)
	})
}

// checkResult is a route gate decision in printable form.
type checkResult struct {
	Path     string `json:"path"`
	Action   string `json:"action"`
	Location string `json:"location,omitempty"`
	Status   int    `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func cmdCheck(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "check")
	anonymous := fs.Bool("anonymous", false, "ignore the stored token")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: otsem check [-anonymous] <path>")
		return errUsage
	}
	path := fs.Arg(0)

	var token string
	if !*anonymous {
		s, err := e.session(ctx)
		if err != nil {
			return err
		}
		token, _ = s.tokens.AccessToken(ctx)
	}

	d := routegate.New().Decide(path, token)
	res := checkResult{
		Path:     path,
		Action:   d.Action.String(),
		Location: d.Location,
		Status:   d.Status,
		Reason:   d.Reason,
	}

	return e.output(res, func(w io.Writer) {
		switch d.Action {
		case routegate.ActionRedirect:
			fmt.Fprintf(w, "%s -> redirect %s (%s)\n", path, d.Location, d.Reason)
		case routegate.ActionReject:
			fmt.Fprintf(w, "%s -> %d %s\n", path, d.Status, d.Body.Error)
		default:
			fmt.Fprintf(w, "%s -> allow\n", path)
		}
	})
}
