package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"finboard/internal/aggregate"
	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/core"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Spending",
		Headers: []string{"Category", "Amount"},
		Rows: [][]string{
			{"Housing", "$2,200.00"},
			{"---"},
			{"TOTAL", "$2,200.00"},
		},
	})

	for _, want := range []string{"Spending", "Category", "Housing", "TOTAL", "$2,200.00", "├"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")[1:]
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if got := lipgloss.Width(l); got != width {
			t.Errorf("line %d width = %d, want %d: %q", i, got, width, l)
		}
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q, want empty", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		args    [4]string
		want    aggregate.Filter
		wantErr bool
	}{
		{name: "empty", want: aggregate.Filter{}},
		{
			name: "all fields",
			args: [4]string{"Groceries", "expense", "2024-09-01", "2024-09-30"},
			want: aggregate.Filter{
				Category: "Groceries",
				Type:     aggregate.ExpensesOnly,
				Start:    core.NewDate(2024, 9, 1),
				End:      core.NewDate(2024, 9, 30),
			},
		},
		{name: "bad type", args: [4]string{"", "refund", "", ""}, wantErr: true},
		{name: "bad start", args: [4]string{"", "", "2024-13-01", ""}, wantErr: true},
		{name: "bad end", args: [4]string{"", "", "", "yesterday"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilter(tt.args[0], tt.args[1], tt.args[2], tt.args[3])
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatSyncEvent(t *testing.T) {
	msg := amqp.NewLedgerSyncMessage("business", 2, -98000, "2024-10-15")
	msg.Timestamp = time.Date(2024, 10, 15, 9, 30, 0, 0, time.Local)

	got := formatSyncEvent(msg, &config.Config{Currency: "USD"})
	for _, want := range []string{"09:30:00", "business", "posted 2", "-$980.00", "2024-10-15"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatSyncEvent() = %q, missing %q", got, want)
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", config.BackendMemory)
	t.Setenv("SEED_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	flagBook, flagLogLevel = "personal", ""
	flagCategory, flagType, flagStart, flagEnd = "", "", "", ""
	flagPage, flagEvery = 1, 1

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "sync", args: []string{"sync"}, want: []string{"personal", "business", "Posted"}},
		{name: "categories", args: []string{"categories"}, want: []string{"SPENDING  personal", "Groceries", "TOTAL"}},
		{name: "recurring business", args: []string{"recurring", "--book", "business"}, want: []string{"Office Rent", "SaaS Subscription - Figma", "monthly"}},
		{name: "recurring expired", args: []string{"recurring"}, want: []string{"Gym Membership", "expired"}},
		{name: "insights", args: []string{"insights"}, want: []string{"INSIGHTS  personal"}},
		{name: "forecast", args: []string{"forecast", "--every", "10"}, want: []string{"FORECAST  Next 30d", "Balance"}},
		{name: "transactions", args: []string{"tx", "--category", "Income", "--type", "income"}, want: []string{"Salary", "Page 1 of"}},
		{name: "no match", args: []string{"tx", "--category", "Income", "--type", "expense"}, want: []string{"No transactions match."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("finctl %v: %v\n%s", tt.args, err, out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("finctl %v output missing %q:\n%s", tt.args, want, out)
				}
			}
		})
	}
}

func TestCommands_Errors(t *testing.T) {
	tests := [][]string{
		{"categories", "--book", "team"},
		{"forecast", "--every", "0"},
		{"tx", "--start", "not-a-date"},
	}
	for _, args := range tests {
		if _, err := runCLI(t, args...); err == nil {
			t.Errorf("finctl %v: expected error", args)
		}
	}
}
