// Package cli implements the tallyctl operator commands.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

// Commands returns every tallyctl command, writing results to stdout and
// diagnostics to stderr.
func Commands(stdout, stderr io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&settleCmd{stdout: stdout, stderr: stderr},
		&tokenCmd{stdout: stdout, stderr: stderr},
	}
}

// printMarkdown renders md for the terminal, or writes it untouched when raw.
func printMarkdown(w io.Writer, md string, raw bool) error {
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
