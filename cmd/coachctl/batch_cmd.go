package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill <user-id>",
	Short: "Rebuild a user's understanding from completed sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackfill,
}

var splitCmd = &cobra.Command{
	Use:   "split <user-id>",
	Short: "Split a user's legacy sessions wherever messages are 12h apart",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplit,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Close production sessions idle for longer than the session gap",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func runBackfill(cmd *cobra.Command, args []string) error {
	userId, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	res, err := container.BackfillService.Replay(cmdCtx, uuid.Nil, userId)
	if err != nil {
		return err
	}

	fmt.Printf("%s %d sessions replayed", color.GreenString("done"), res.SessionsProcessed)
	if res.Failed > 0 {
		fmt.Printf(", %s", color.RedString("%d failed", res.Failed))
	}
	fmt.Println()
	if res.Understanding != nil {
		fmt.Printf("  stage     %s\n", res.Understanding.StageOfChange)
		fmt.Printf("  narrative %s\n", res.Understanding.Narrative)
	}
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	userId, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	res, err := container.BackfillService.Split(cmdCtx, uuid.Nil, userId)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d groups, %d sessions created, %d emptied\n",
		color.GreenString("done"), res.Groups, res.Created, res.Emptied)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	closed, err := container.SweeperService.Sweep(cmdCtx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d idle sessions closed\n", color.GreenString("done"), closed)
	return nil
}
