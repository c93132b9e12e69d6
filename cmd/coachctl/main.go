package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"money-coach-be/internal/bootstrap"
	"money-coach-be/internal/config"
	"money-coach-be/internal/pkg/realm"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	realmFlag string
	container *bootstrap.Container
	cmdCtx    context.Context
	stopCmd   context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "Operator tools for the money coach backend",
	Long: `coachctl runs batch jobs against the coach store using the same
configuration as the REST server (.env or environment variables).

Available commands:
  seed-profiles - Create simulator profiles from a YAML file
  simulate      - Run an automated simulator conversation
  evaluate      - Re-run card evaluation for a simulator run
  backfill      - Rebuild a user's understanding from completed sessions
  split         - Split a user's legacy sessions by the 12h gap
  sweep         - Close idle production sessions`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		r := realm.Realm(realmFlag)
		if !r.Valid() {
			return fmt.Errorf("invalid realm %q", realmFlag)
		}

		cmdCtx, stopCmd = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		cmdCtx = realm.WithRealm(cmdCtx, r)

		var err error
		container, err = bootstrap.NewContainer(cmdCtx, config.Load())
		if err != nil {
			return err
		}
		// Close pipelines enqueue their slow path; drain it while we run.
		go container.ConsumerService.Consume(cmdCtx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopCmd()
		container.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&realmFlag, "realm", string(realm.Production), "data realm (production or simulation)")
	rootCmd.AddCommand(seedProfilesCmd, simulateCmd, evaluateCmd, backfillCmd, splitCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
