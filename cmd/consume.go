package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vibast-solutions/ms-go-reservations/app/queue"
	"github.com/vibast-solutions/ms-go-reservations/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume queued messages",
	Long:  "Consume queued messages from Redis streams.",
}

// init registers consume subcommands.
func init() {
	consumeCmd.AddCommand(consumeClaimsCmd)
	rootCmd.AddCommand(consumeCmd)
}

var consumeClaimsCmd = &cobra.Command{
	Use:   "claims [consumer_name]",
	Short: "Start the claim queue consumer",
	Long:  "Start a worker that reads claims from the Redis stream and settles them under the resource locks.",
	Args:  cobra.ExactArgs(1),
	Run:   runConsumeClaims,
}

// runConsumeClaims starts the claim queue consumer worker.
func runConsumeClaims(_ *cobra.Command, args []string) {
	consumerName := args[0]

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build dependencies")
	}
	defer deps.Close()

	go deps.purgeExpiredLeases(ctx, cfg.LeasePurgeInterval)

	consumer := queue.NewClaimConsumer(deps.rdb, deps.claims, consumerName)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logrus.Info("Received shutdown signal, stopping consumer...")
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("Consumer error")
	}

	logrus.Info("Consumer stopped")
}
