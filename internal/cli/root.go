package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finboard/internal/config"
	"finboard/internal/log"
	"finboard/internal/services"
)

var (
	flagBook     string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "finctl",
	Short: "Personal and business finance books from the terminal",
	Long: `finctl synchronizes recurring rules into the ledger and prints the
derived views of a book: category spend, insights, cash-flow forecast and
the recurring schedule.

Storage, seed data and view settings come from the same environment
variables as the finboard server.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBook, "book", "b", "personal", "book to operate on (personal, business)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

// session is everything a command needs to reach the books.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	store  Store
	books  services.Books
}

func openSession(ctx context.Context) (*session, error) {
	LoadEnvFile()

	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	// Keep command output readable unless asked otherwise.
	if level == "" {
		level = "warn"
	}
	logger := SetupLogger(level).WithComponent(log.ComponentCLI)

	cfg, err := LoadAndValidateConfig(logger)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		logger: logger,
		store:  store,
		books:  services.NewBooks(store, nil, Options(cfg)),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// book resolves the --book flag.
func (s *session) book() (*services.BookService, error) {
	svc, err := s.books.Get(flagBook)
	if err != nil {
		return nil, fmt.Errorf("book %q: %w", flagBook, err)
	}
	return svc, nil
}
