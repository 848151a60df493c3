// Package authctl implements the operator command line: key generation,
// password hashing and a gRPC smoke test against a running server.
package authctl

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/auth"
)

const usage = `usage: authctl <command> [flags]

commands:
  keygen              print a random base64 signing secret
  hash                read a password without echo and print its bcrypt hash
  whoami -addr HOST:PORT -email EMAIL
                      authenticate over gRPC, print the principal, log out`

var errUsage = errors.New("usage")

type App struct {
	in  *bufio.Reader
	out io.Writer
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{in: bufio.NewReader(in), out: out}
}

// Run executes the command in args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return errUsage
	}

	switch args[0] {
	case "keygen":
		return a.keygen(args[1:])
	case "hash":
		return a.hash()
	case "whoami":
		return a.whoami(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func (a *App) keygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(a.out)
	size := fs.Int("bytes", auth.MinKeyBytes, "key size in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size < auth.MinKeyBytes {
		return common.ErrWeakSigningKey
	}

	key := common.GenerateRandByteArray(*size)
	defer common.WipeByteArray(key)
	_, err := fmt.Fprintln(a.out, base64.StdEncoding.EncodeToString(key))
	return err
}

func (a *App) hash() error {
	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(pw) != string(confirm) {
		return common.ErrPasswordMismatch
	}
	if len(pw) == 0 || len(pw) > auth.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be 1..%d bytes", common.ErrValidation, auth.MaxPasswordBytes)
	}

	h, err := auth.HashPassword(string(pw))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, h)
	return err
}

// newClient is a seam for tests.
var newClient = func(addr string) (*GRPCClient, error) { return NewGRPCClient(addr) }

func (a *App) whoami(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(a.out)
	addr := fs.String("addr", "localhost:50051", "gRPC address")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		var err error
		if *email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}
	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	c, err := newClient(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Authenticate(ctx, *email, string(pw)); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer func() { _ = c.Logout(ctx) }()

	me, err := c.Me(ctx)
	if err != nil {
		return fmt.Errorf("me: %w", err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(me)
}
