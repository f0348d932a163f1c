package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/tracker"
)

// ErrUsage marks bad command lines; main exits with status 2 for it.
var ErrUsage = errors.New("usage error")

const usage = `usage: expenses <command> [flags]

commands:
  add        -desc TEXT -amount N -category NAME [-date YYYY-MM-DD]
  edit ID    [-desc TEXT] [-amount N] [-category NAME] [-date YYYY-MM-DD]
  delete ID
  list       [-sort date|amount|description] [-category NAME]
  stats      [-ref YYYY-MM-DD]
  categories [-all]
  months
  watch      (requires AMQP_URL)
`

// App runs commands against one tracker.
type App struct {
	Tracker *tracker.Tracker
	Views   *aggregate.Cached
	Out     io.Writer
	Err     io.Writer
	// Now is the clock used for default dates; nil means time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Run dispatches args[0]. The watch command is handled by main.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.Err, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "delete", "rm":
		return a.remove(ctx, rest)
	case "list", "ls":
		return a.list(rest)
	case "stats":
		return a.stats(rest)
	case "categories":
		return a.categories(rest)
	case "months":
		return a.months(rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.Out, usage)
		return nil
	default:
		fmt.Fprintf(a.Err, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrUsage
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// splitID takes the leading positional id so flags may follow it.
func splitID(args []string) (core.ID, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: missing expense id", ErrUsage)
	}
	return core.ID(args[0]), args[1:], nil
}

func (a *App) add(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	var in core.Input
	fs.StringVar(&in.Description, "desc", "", "description")
	fs.StringVar(&in.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&in.Category, "category", "", "category, one of the categories command -all")
	fs.StringVar(&in.Date, "date", core.DateOf(a.now()).String(), "date YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return err
	}

	e, err := a.Tracker.Add(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "added %s\n", e.ID)
	return nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return err
	}
	current, ok := a.Tracker.Get(id)
	if !ok {
		return fmt.Errorf("edit %s: %w", id, tracker.ErrNotFound)
	}

	fs := a.flagSet("edit")
	in := core.Input{
		Description: current.Description,
		Amount:      current.Amount.String(),
		Category:    current.Category.String(),
		Date:        current.Date.String(),
	}
	fs.StringVar(&in.Description, "desc", in.Description, "description")
	fs.StringVar(&in.Amount, "amount", in.Amount, "amount")
	fs.StringVar(&in.Category, "category", in.Category, "category")
	fs.StringVar(&in.Date, "date", in.Date, "date YYYY-MM-DD")
	if err := parse(fs, rest); err != nil {
		return err
	}

	if _, err := a.Tracker.Update(ctx, id, in); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated %s\n", id)
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	id, _, err := splitID(args)
	if err != nil {
		return err
	}
	if err := a.Tracker.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "deleted %s\n", id)
	return nil
}

func (a *App) list(args []string) error {
	fs := a.flagSet("list")
	sortBy := fs.String("sort", "date", "date, amount or description")
	category := fs.String("category", "", "only this category")
	if err := parse(fs, args); err != nil {
		return err
	}
	key, err := aggregate.ParseSortKey(*sortBy)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	var filter core.Category
	if strings.TrimSpace(*category) != "" {
		if filter, err = core.ParseCategory(*category); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}

	expenses, version := a.Tracker.Snapshot()
	if len(expenses) == 0 {
		fmt.Fprintln(a.Out, "No expenses yet.")
		return nil
	}
	view := a.Views.SortAndFilter(version, expenses, key, filter)
	if len(view) == 0 {
		fmt.Fprintln(a.Out, "No expenses match the selected filter.")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tDESCRIPTION\tAMOUNT")
	for _, e := range view {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, displayDate(e.Date), e.Category, e.Description, formatMoney(e.Amount))
	}
	return w.Flush()
}

func (a *App) stats(args []string) error {
	fs := a.flagSet("stats")
	refFlag := fs.String("ref", "", "reference date YYYY-MM-DD (default today)")
	if err := parse(fs, args); err != nil {
		return err
	}
	ref := a.now()
	if *refFlag != "" {
		d, err := core.ParseDate(*refFlag)
		if err != nil {
			return fmt.Errorf("%w: ref: %v", ErrUsage, err)
		}
		ref = d.Time
	}

	expenses, version := a.Tracker.Snapshot()
	st := a.Views.Summarize(version, expenses, ref)

	top, topDetail := "None", "No expenses yet"
	if st.HasTopCategory() {
		top, topDetail = st.TopCategory.String(), formatMoney(st.TopCategoryTotal)
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total Expenses\t%s\t%d transactions\n", formatMoney(st.Total), st.Count)
	fmt.Fprintf(w, "Average Expense\t%s\tper transaction\n", formatMoney(st.Average))
	fmt.Fprintf(w, "This Month (%s)\t%s\t%d transactions\n", st.CurrentMonth.Label(), formatMoney(st.CurrentMonthTotal), st.CurrentMonthCount)
	fmt.Fprintf(w, "Previous Month\t%s\t%+.2f%% change\n", formatMoney(st.PreviousMonthTotal), st.MonthOverMonthChangePct)
	fmt.Fprintf(w, "Top Category\t%s\t%s\n", top, topDetail)
	return w.Flush()
}

func (a *App) categories(args []string) error {
	fs := a.flagSet("categories")
	all := fs.Bool("all", false, "list every selectable category")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *all {
		for _, c := range core.Categories() {
			fmt.Fprintln(a.Out, c)
		}
		return nil
	}

	expenses, version := a.Tracker.Snapshot()
	totals := a.Views.ByCategory(version, expenses)
	if len(totals) == 0 {
		fmt.Fprintln(a.Out, "No data to display")
		return nil
	}
	var grand core.Money
	for _, ct := range totals {
		grand = grand.Add(ct.Total)
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	for _, ct := range totals {
		share := 100 * float64(ct.Total.Cents) / float64(grand.Cents)
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\n", ct.Category, formatMoney(ct.Total), share)
	}
	return w.Flush()
}

func (a *App) months(args []string) error {
	if err := parse(a.flagSet("months"), args); err != nil {
		return err
	}
	expenses, version := a.Tracker.Snapshot()
	totals := a.Views.ByMonth(version, expenses)
	if len(totals) == 0 {
		fmt.Fprintln(a.Out, "No data to display")
		return nil
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	for _, mt := range totals {
		fmt.Fprintf(w, "%s\t%s\n", mt.Month.Label(), formatMoney(mt.Total))
	}
	return w.Flush()
}

func formatMoney(m core.Money) string {
	return "$" + humanize.FormatFloat("#,###.##", m.Float())
}

func displayDate(d core.Date) string {
	if d.IsEmpty() {
		return "-"
	}
	return d.Format("Jan 02, 2006")
}
