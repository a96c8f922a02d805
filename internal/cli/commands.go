package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"finboard/internal/aggregate"
	"finboard/internal/core"
)

var (
	flagCategory string
	flagType     string
	flagStart    string
	flagEnd      string
	flagPage     int
	flagEvery    int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Post every due recurring transaction in all books",
	RunE:  runSync,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Spend per category",
	RunE:  runCategories,
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Budget, bill and goal insights",
	RunE:  runInsights,
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Projected daily balance from the recurring rules",
	RunE:  runForecast,
}

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Recurring rules with their next occurrence",
	RunE:  runRecurring,
}

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "One page of the filtered ledger",
	RunE:    runTransactions,
}

func init() {
	forecastCmd.Flags().IntVar(&flagEvery, "every", 1, "print every n-th day")

	transactionsCmd.Flags().StringVar(&flagCategory, "category", "", "only this category")
	transactionsCmd.Flags().StringVar(&flagType, "type", "", "income or expense")
	transactionsCmd.Flags().StringVar(&flagStart, "start", "", "first date (YYYY-MM-DD)")
	transactionsCmd.Flags().StringVar(&flagEnd, "end", "", "last date (YYYY-MM-DD)")
	transactionsCmd.Flags().IntVar(&flagPage, "page", 1, "page number, starting at 1")

	rootCmd.AddCommand(syncCmd, categoriesCmd, insightsCmd, forecastCmd, recurringCmd, transactionsCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	posted, err := s.books.SyncAll(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(posted))
	for _, book := range []core.Book{core.Personal, core.Business} {
		if n, ok := posted[book]; ok {
			rows = append(rows, []string{string(book), strconv.Itoa(n)})
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), RenderTable(Table{
		Title:   "Synchronized",
		Headers: []string{"Book", "Posted"},
		Rows:    rows,
	}))
	return nil
}

func runCategories(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	svc, err := s.book()
	if err != nil {
		return err
	}
	if _, err := svc.Sync(cmd.Context()); err != nil {
		return err
	}

	cats, err := svc.Categories(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, RenderTitle("SPENDING  "+string(svc.Book())))
	if len(cats) == 0 {
		fmt.Fprintln(out, RenderEmpty("No spending recorded."))
		return nil
	}

	rows := make([][]string, 0, len(cats)+2)
	for _, c := range cats {
		rows = append(rows, []string{c.Label, c.Value.Display(svc.Currency())})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"TOTAL", aggregate.Total(cats).Display(svc.Currency())})
	fmt.Fprint(out, RenderTable(Table{Headers: []string{"Category", "Amount"}, Rows: rows}))
	return nil
}

func runInsights(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	svc, err := s.book()
	if err != nil {
		return err
	}
	if _, err := svc.Sync(cmd.Context()); err != nil {
		return err
	}

	insights, err := svc.Insights(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, RenderTitle("INSIGHTS  "+string(svc.Book())))
	if len(insights) == 0 {
		fmt.Fprintln(out, RenderEmpty("Nothing to report."))
		return nil
	}
	for _, in := range insights {
		fmt.Fprintln(out, RenderInsight(in))
	}
	return nil
}

func runForecast(cmd *cobra.Command, _ []string) error {
	if flagEvery < 1 {
		return fmt.Errorf("--every must be at least 1")
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	svc, err := s.book()
	if err != nil {
		return err
	}
	if _, err := svc.Sync(cmd.Context()); err != nil {
		return err
	}

	points, err := svc.Forecast(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(points)/flagEvery+1)
	for i, p := range points {
		if (i+1)%flagEvery != 0 && i != len(points)-1 {
			continue
		}
		rows = append(rows, []string{p.Date.String(), p.Balance.Display(svc.Currency())})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, RenderTitle(fmt.Sprintf("FORECAST  Next %dd", len(points))))
	fmt.Fprint(out, RenderTable(Table{Headers: []string{"Date", "Balance"}, Rows: rows}))
	return nil
}

func runRecurring(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	svc, err := s.book()
	if err != nil {
		return err
	}

	list, err := svc.Recurring(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, RenderTitle("RECURRING  "+string(svc.Book())))
	if len(list) == 0 {
		fmt.Fprintln(out, RenderEmpty("No recurring rules."))
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, st := range list {
		next := "expired"
		switch {
		case st.DueToday:
			next = "today"
		case !st.Expired:
			next = st.Next.String()
		}
		rows = append(rows, []string{
			st.Rule.Description,
			st.Rule.Signed().Display(svc.Currency()),
			string(st.Rule.Frequency),
			st.Rule.Category,
			next,
		})
	}
	fmt.Fprint(out, RenderTable(Table{
		Headers: []string{"Description", "Amount", "Frequency", "Category", "Next"},
		Rows:    rows,
	}))
	return nil
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	f, err := parseFilter(flagCategory, flagType, flagStart, flagEnd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	svc, err := s.book()
	if err != nil {
		return err
	}
	if _, err := svc.Sync(cmd.Context()); err != nil {
		return err
	}

	page, err := svc.Transactions(cmd.Context(), f, flagPage-1, 0)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if page.Total == 0 {
		fmt.Fprintln(out, RenderEmpty("No transactions match."))
		return nil
	}
	rows := make([][]string, 0, len(page.Items))
	for _, t := range page.Items {
		rows = append(rows, []string{
			t.Date.String(),
			t.Description,
			t.Category,
			string(t.Status),
			t.Amount.Display(svc.Currency()),
		})
	}
	fmt.Fprint(out, RenderTable(Table{
		Title:   fmt.Sprintf("Page %d of %d (%d transactions)", page.Index+1, page.Pages, page.Total),
		Headers: []string{"Date", "Description", "Category", "Status", "Amount"},
		Rows:    rows,
	}))
	return nil
}

func parseFilter(category, typ, start, end string) (aggregate.Filter, error) {
	tf, err := aggregate.ParseTypeFilter(typ)
	if err != nil {
		return aggregate.Filter{}, err
	}
	f := aggregate.Filter{Category: category, Type: tf}
	if start != "" {
		if f.Start, err = core.ParseDate(start); err != nil {
			return aggregate.Filter{}, fmt.Errorf("--start: %w", err)
		}
	}
	if end != "" {
		if f.End, err = core.ParseDate(end); err != nil {
			return aggregate.Filter{}, fmt.Errorf("--end: %w", err)
		}
	}
	return f, nil
}
