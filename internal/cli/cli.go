// Package cli implements the gophauth command line tool: key generation,
// password hashing, offline encryption and token tooling, and a local
// SQLite-backed key store sealed under a master key.
package cli

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// envMasterKey names the environment variable read when -master is absent.
const envMasterKey = "GOPHAUTH_MASTER_KEY"

// keyEncoding renders raw key material for the terminal.
var keyEncoding = base64.RawURLEncoding

var errUsage = errors.New("usage")

type App struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

type command struct {
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"genkey":  {"generate a random or passphrase-derived key", (*App).genKey},
	"hash":    {"bcrypt-hash a password", (*App).hash},
	"check":   {"check a password against a bcrypt hash", (*App).check},
	"encrypt": {"encrypt text under a key", (*App).encrypt},
	"decrypt": {"decrypt text produced by encrypt", (*App).decrypt},
	"issue":   {"issue a signed token", (*App).issue},
	"verify":  {"verify a token and print its claims", (*App).verify},
	"keys":    {"manage a local key store (add, list, rm)", (*App).keysCmd},
}

// Run executes the command named by args[0] and returns the process exit
// code: 0 on success, 1 on failure, 2 on bad usage.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &App{in: bufio.NewReader(stdin), out: stdout, err: stderr}

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.err, "unknown command %q\n", args[0])
		a.usage()
		return 2
	}

	if err := cmd.run(a, ctx, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || err == errUsage {
			return 2
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintln(a.err, err)
			return 2
		}
		fmt.Fprintln(a.err, "error:", err)
		return 1
	}
	return 0
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.err, "Usage: gophauth <command> [flags]")
	fmt.Fprintln(a.err, "Commands:")
	for _, name := range names {
		fmt.Fprintf(a.err, "  %-8s %s\n", name, commands[name].summary)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.err)
	return fs
}

// parse parses args into fs, turning flag errors into errUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// argOrLine returns the first positional argument, or the next input line.
// An interactive terminal is prompted with prompt first.
func (a *App) argOrLine(fs *flag.FlagSet, prompt string) (string, error) {
	if fs.NArg() > 0 {
		return fs.Arg(0), nil
	}
	var (
		line string
		err  error
	)
	if isTerminal(int(os.Stdin.Fd())) {
		line, err = GetSimpleText(a.in, prompt, a.err)
	} else {
		line, err = readLine(a.in)
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return line, nil
}

// masterKey returns the -master value, the environment fallback, or a
// prompted secret, in that order.
func (a *App) masterKey(flagValue string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}
	if v := os.Getenv(envMasterKey); v != "" {
		return []byte(v), nil
	}
	return GetPassword(a.in, "Master key", a.err)
}
