package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schoolpay/payments/internal/reconcile"
	reconcilepostgres "github.com/schoolpay/payments/internal/reconcile/postgres"

	orderpostgres "github.com/schoolpay/payments/internal/order/postgres"
	"github.com/schoolpay/payments/pkg/logger"
)

var replayLimit int

// replayCmd re-runs reconciliation for webhook deliveries that were logged
// but never processed, e.g. because the order arrived after its webhook.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay unprocessed webhook deliveries",
	Long:  `Re-run reconciliation for webhook log entries that never completed processing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		lg := logger.L()

		db, err := initDB(cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to init gorm: %v\n", err)
			os.Exit(1)
		}

		engine := reconcile.NewEngine(
			orderpostgres.NewOrderRepository(gormDB),
			reconcilepostgres.NewStatusRepository(gormDB),
			reconcilepostgres.NewWebhookLogRepository(gormDB),
			nil,
			lg,
		)

		replayed, err := engine.ReplayUnprocessed(context.Background(), replayLimit)
		if err != nil {
			lg.Error("replay failed", "error", err)
			os.Exit(1)
		}

		lg.Info("replay finished", "replayed", replayed, "limit", replayLimit)
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayLimit, "limit", 100, "Maximum number of deliveries to replay")
}
