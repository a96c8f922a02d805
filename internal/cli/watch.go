package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/log"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print ledger sync events published by finboard",
	Long: `watch consumes the ledger sync events finboard publishes after every
synchronization pass that posted recurring transactions. AMQP_URL must be
set.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	LoadEnvFile()
	logger := SetupLogger(flagLogLevel).WithComponent(log.ComponentAMQP)
	cfg, err := LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not set")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	ctx, cancel := SignalContext(cmd.Context(), logger)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, RenderEmpty("Waiting for ledger sync events on "+cfg.AMQPQueue+" (Ctrl+C to stop)"))
	err = client.ConsumeLedgerSync(ctx, func(msg *amqp.LedgerSyncMessage) error {
		_, err := fmt.Fprintln(out, formatSyncEvent(msg, cfg))
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func formatSyncEvent(msg *amqp.LedgerSyncMessage, cfg *config.Config) string {
	return fmt.Sprintf("  %s  %-8s posted %d, balance %s (as of %s)",
		msg.Timestamp.Local().Format("15:04:05"),
		msg.Book,
		msg.Posted,
		core.Cents(msg.BalanceCents).Display(cfg.Currency),
		msg.SyncedOn)
}
