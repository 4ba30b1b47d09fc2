// Package cli is the otsem terminal client: it signs in to the banking API,
// keeps the session in a token store and runs a handful of account and admin
// operations.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/otsembank/otsem/pkg/slogx"
)

// Version is overridden at build time via ldflags.
var Version = "v0.1.0"

// errUsage means the arguments were wrong and usage has been printed.
var errUsage = errors.New("usage")

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":   {"sign in and store the session", cmdLogin},
	"logout":  {"forget the stored session", cmdLogout},
	"me":      {"show the signed-in user", cmdMe},
	"status":  {"show what the stored token says", cmdStatus},
	"check":   {"run the route gate on a page path with the stored token", cmdCheck},
	"users":   {"list accounts (admin)", cmdUsers},
	"adjust":  {"credit or debit an account (admin)", cmdAdjust},
	"receipt": {"print a transaction receipt", cmdReceipt},
	"quote":   {"show USDT rates, -watch to keep polling", cmdQuote},
	"health":  {"check that the API answers", cmdHealth},
	"dev":     {"local development helpers: keygen, token", cmdDev},
	"version": {"print the version", cmdVersion},
}

// env is what every command runs with.
type env struct {
	cfg    *Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
	json   bool

	sess *session
}

// session opens the token store on first use.
func (e *env) session(ctx context.Context) (*session, error) {
	if e.sess != nil {
		return e.sess, nil
	}
	s, err := openSession(ctx, e.cfg, func(string) {
		fmt.Fprintln(e.stderr, "session expired or revoked, run `otsem login` again")
	})
	if err != nil {
		return nil, err
	}
	e.sess = s
	return s, nil
}

// output writes v as JSON in -json mode, otherwise calls text.
func (e *env) output(v any, text func(w io.Writer)) error {
	if e.json {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(e.stdout)
	return nil
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("otsem", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to otsem.yaml")
	jsonOut := fs.Bool("json", false, "print JSON")
	fs.Usage = func() { usage(stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return 2
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	logger := slogx.New(slogx.Config{
		Service: "otsem-cli",
		Version: Version,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  stderr,
	})

	e := &env{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr, json: *jsonOut}
	defer func() {
		if e.sess != nil {
			if err := e.sess.Close(); err != nil {
				logger.Warn("closing session store", "error", err)
			}
		}
	}()

	err = cmd.run(slogx.WithContext(ctx, logger), e, rest)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(stderr, "otsem %s: %v\n", name, err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: otsem [-config file] [-json] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

// newFlagSet returns a flag set for a subcommand that reports errors to the
// command's stderr.
func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("otsem "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parse parses args and maps parse errors to errUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func required(fs *flag.FlagSet, names ...string) error {
	var missing []string
	for _, n := range names {
		if f := fs.Lookup(n); f != nil && f.Value.String() == "" {
			missing = append(missing, "-"+n)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(fs.Output(), "missing %s\n", strings.Join(missing, ", "))
		fs.Usage()
		return errUsage
	}
	return nil
}

func cmdVersion(_ context.Context, e *env, _ []string) error {
	return e.output(map[string]string{"version": Version}, func(w io.Writer) {
		fmt.Fprintln(w, "otsem", Version)
	})
}
