package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vibast-solutions/ms-go-reservations/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reservable stock",
	Long:  "Load course seats, ticket stock or red envelope pools before a sale opens.",
}

// init registers seed subcommands.
func init() {
	seedCmd.AddCommand(seedSeatsCmd, seedTicketsCmd, seedEnvelopesCmd)
	rootCmd.AddCommand(seedCmd)
}

var seedSeatsCmd = &cobra.Command{
	Use:   "seats [course_id] [title] [seat...]",
	Short: "Open the seats of a course",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd.Context(), func(ctx context.Context, deps *dependencies) error {
			if err := deps.enrollments.OpenSeats(ctx, args[0], args[1], args[2:]); err != nil {
				return err
			}
			logrus.WithField("course_id", args[0]).WithField("seats", len(args)-2).Info("Seats opened")
			return nil
		})
	},
}

var seedTicketsCmd = &cobra.Command{
	Use:   "tickets [event] [quantity]",
	Short: "Set the ticket stock of an event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || quantity < 0 {
			return fmt.Errorf("invalid quantity: %s", args[1])
		}
		return withDependencies(cmd.Context(), func(ctx context.Context, deps *dependencies) error {
			if err := deps.tickets.SetQuantity(ctx, args[0], quantity); err != nil {
				return err
			}
			logrus.WithField("event", args[0]).WithField("quantity", quantity).Info("Ticket stock set")
			return nil
		})
	},
}

var seedEnvelopesCmd = &cobra.Command{
	Use:   "envelopes [pool] [count] [total_cents]",
	Short: "Install a red envelope pool",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := strconv.Atoi(args[1])
		if err != nil || count <= 0 {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		total, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || total <= 0 {
			return fmt.Errorf("invalid total_cents: %s", args[2])
		}
		return withDependencies(cmd.Context(), func(ctx context.Context, deps *dependencies) error {
			amounts, err := deps.envelopes.Install(ctx, args[0], count, total)
			if err != nil {
				return err
			}
			logrus.WithField("pool", args[0]).WithField("envelopes", len(amounts)).Info("Envelopes installed")
			return nil
		})
	},
}

func withDependencies(ctx context.Context, fn func(context.Context, *dependencies) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(ctx, deps)
}
