package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/otsembank/otsem/pkg/cryptox"
	"github.com/otsembank/otsem/pkg/jwtx"
)

func cmdDev(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, "usage: otsem dev <keygen|token> [flags]")
		return errUsage
	}

	switch args[0] {
	case "keygen":
		return devKeygen(e, args[1:])
	case "token":
		return devToken(e, args[1:])
	default:
		fmt.Fprintf(e.stderr, "unknown dev command %q\n", args[0])
		return errUsage
	}
}

// devKeygen writes a private signing key and prints its public JWKS, which an
// edge in verify mode can load from JWKS_URL.
func devKeygen(e *env, args []string) error {
	fs := newFlagSet(e, "dev keygen")
	alg := fs.String("alg", cryptox.AlgEdDSA, "RS256, ES256 or EdDSA")
	kid := fs.String("kid", "dev", "key id")
	out := fs.String("out", "", "write the PEM private key here")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "out"); err != nil {
		return err
	}

	key, pemBytes, err := cryptox.GenerateSigningKey(*alg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, pemBytes, 0o600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}

	signer, err := jwtx.NewSigner(*kid, key)
	if err != nil {
		return err
	}

	jwks := jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}}
	e.json = true
	return e.output(jwks, nil)
}

// devToken mints an access token with a key from devKeygen.
func devToken(e *env, args []string) error {
	fs := newFlagSet(e, "dev token")
	keyFile := fs.String("key", "", "PEM private key")
	kid := fs.String("kid", "dev", "key id")
	sub := fs.String("sub", "", "subject (user id)")
	role := fs.String("role", "CUSTOMER", "role claim")
	issuer := fs.String("issuer", "", "iss claim")
	ttl := fs.Duration("ttl", jwtx.DefaultAccessTokenTTL, "lifetime")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "key", "sub"); err != nil {
		return err
	}

	pemBytes, err := os.ReadFile(*keyFile)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	key, err := cryptox.ParseSigningKey(pemBytes)
	if err != nil {
		return err
	}
	signer, err := jwtx.NewSigner(*kid, key)
	if err != nil {
		return err
	}

	token, err := signer.Sign(jwtx.NewAccessClaims(*sub, *role, *ttl, *issuer, time.Now()))
	if err != nil {
		return err
	}

	return e.output(map[string]string{"accessToken": token}, func(w io.Writer) {
		fmt.Fprintln(w, token)
	})
}
