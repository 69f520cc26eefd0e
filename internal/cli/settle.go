package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/mmynk/tallyup/internal/models"
	"github.com/mmynk/tallyup/internal/report"
	"github.com/mmynk/tallyup/internal/settlement"
	"github.com/mmynk/tallyup/internal/storage/sqlite"
	"github.com/mmynk/tallyup/pkg/api"
)

// document is the offline input format of the settle command.
type document struct {
	Group    api.Group     `json:"group"`
	Expenses []api.Expense `json:"expenses"`
}

type settleCmd struct {
	stdout, stderr io.Writer

	file     string
	dbPath   string
	groupID  string
	currency string
	strict   bool
	raw      bool
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "compute balances and the transfers that settle a group" }
func (*settleCmd) Usage() string {
	return `tallyctl settle -f <file.json> [-c <currency>] [-strict] [-raw]
tallyctl settle -db <path> -group <id> [-c <currency>] [-strict] [-raw]

  Computes every member's balance and a list of transfers that settles all
  debts, either from a JSON document or from the server database.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "JSON document with a group and its expenses")
	f.StringVar(&c.dbPath, "db", "", "SQLite database to read the group from")
	f.StringVar(&c.groupID, "group", "", "Group ID to settle (with -db)")
	f.StringVar(&c.currency, "c", report.DefaultCurrency, "ISO 4217 currency code used for display")
	f.BoolVar(&c.strict, "strict", false, "Reject expenses that reference non-members")
	f.BoolVar(&c.raw, "raw", false, "Print plain markdown instead of rendering it")
}

func (c *settleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.file == "") == (c.dbPath == "") {
		fmt.Fprintln(c.stderr, "Error: exactly one of -f and -db is required")
		return subcommands.ExitUsageError
	}
	if c.dbPath != "" && c.groupID == "" {
		fmt.Fprintln(c.stderr, "Error: -group is required with -db")
		return subcommands.ExitUsageError
	}
	if !report.ValidCurrency(c.currency) {
		fmt.Fprintf(c.stderr, "Error: unknown currency %q\n", c.currency)
		return subcommands.ExitUsageError
	}

	opts := settlement.Options{Strict: c.strict}
	var (
		title string
		r     *settlement.Report
		err   error
	)
	if c.file != "" {
		title, r, err = c.settleFile(opts)
	} else {
		title, r, err = c.settleDB(ctx, opts)
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := printMarkdown(c.stdout, report.Markdown(title, r, c.currency), c.raw); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *settleCmd) settleFile(opts settlement.Options) (string, *settlement.Report, error) {
	data, err := os.ReadFile(c.file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", c.file, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("failed to parse %s: %w", c.file, err)
	}

	group, expenses, err := fromDocument(&doc)
	if err != nil {
		return "", nil, err
	}
	r, err := settlement.Compute(group, expenses, opts)
	if err != nil {
		return "", nil, err
	}
	return group.Name, r, nil
}

func (c *settleCmd) settleDB(ctx context.Context, opts settlement.Options) (string, *settlement.Report, error) {
	if _, err := os.Stat(c.dbPath); err != nil {
		return "", nil, fmt.Errorf("database %s: %w", c.dbPath, err)
	}
	store, err := sqlite.New(c.dbPath)
	if err != nil {
		return "", nil, err
	}
	defer store.Close()

	group, err := store.GetGroup(ctx, c.groupID)
	if err != nil {
		return "", nil, err
	}
	r, err := settlement.NewSettler(store, store, settlement.WithOptions(opts)).Settle(ctx, c.groupID)
	if err != nil {
		return "", nil, err
	}
	return group.Name, r, nil
}

// fromDocument converts the JSON document into engine models.
func fromDocument(doc *document) (*models.Group, []models.Expense, error) {
	if len(doc.Group.Members) == 0 {
		return nil, nil, errors.New("group has no members")
	}
	group := &models.Group{ID: doc.Group.ID, Name: doc.Group.Name}
	if group.Name == "" {
		group.Name = "Settlement"
	}
	for _, m := range doc.Group.Members {
		group.Members = append(group.Members, models.Member{ID: m.ID, Name: m.Name})
	}

	expenses := make([]models.Expense, len(doc.Expenses))
	for i, e := range doc.Expenses {
		amount, err := settlement.NewAmount(e.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("expense %d: %w", i+1, err)
		}
		splits := make([]models.Split, len(e.Splits))
		for j, s := range e.Splits {
			share, err := settlement.NewAmount(s.Share)
			if err != nil {
				return nil, nil, fmt.Errorf("expense %d split %d: %w", i+1, j+1, err)
			}
			splits[j] = models.Split{MemberID: s.MemberID, Share: share}
		}
		expenses[i] = models.Expense{
			ID:          e.ID,
			GroupID:     group.ID,
			Description: e.Description,
			Amount:      amount,
			PayerID:     e.PayerID,
			Splits:      splits,
		}
	}
	return group, expenses, nil
}
