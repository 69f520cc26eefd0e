package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/mmynk/tallyup/internal/auth"
)

type tokenCmd struct {
	stdout, stderr io.Writer

	memberID string
	name     string
	ttl      time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint an API token for a group member" }
func (*tokenCmd) Usage() string {
	return `tallyctl token -member <id> [-name <display name>] [-ttl <duration>]

  Prints a bearer token signed with JWT_SECRET (read from the environment
  or a .env file).
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.memberID, "member", "", "Member ID the token identifies")
	f.StringVar(&c.name, "name", "", "Display name embedded in the token")
	f.DurationVar(&c.ttl, "ttl", 720*time.Hour, "Token lifetime")
}

func (c *tokenCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.memberID == "" {
		fmt.Fprintln(c.stderr, "Error: -member is required")
		return subcommands.ExitUsageError
	}
	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(c.stderr, "Error: JWT_SECRET is not set")
		return subcommands.ExitFailure
	}

	token, err := auth.NewJWTManager(secret, c.ttl).Generate(c.memberID, c.name)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.stdout, token)
	return subcommands.ExitSuccess
}
