package main

import (
	"fmt"
	"os"
	"sort"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/dto"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	profilesFile string
	numTurns     int
)

// seedProfilesCmd loads simulator personas from YAML
var seedProfilesCmd = &cobra.Command{
	Use:   "seed-profiles",
	Short: "Create simulator profiles from a YAML file",
	Long: `Create one simulator profile per entry of a YAML list:

  - name: Impulse spender
    persona_prompt: You buy things online when work gets stressful...
  - name: Clone of a real user
    persona_prompt: Speak as this user would.
    clone_from_user_id: 5b0c...`,
	RunE: runSeedProfiles,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <profile-id>",
	Short: "Run an automated simulator conversation to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <run-id>",
	Short: "Re-run card evaluation for a simulator run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	seedProfilesCmd.Flags().StringVarP(&profilesFile, "file", "f", "profiles.yaml", "YAML file with profiles")
	simulateCmd.Flags().IntVarP(&numTurns, "turns", "n", 0, "user turns before the run stops (default from SIM_DEFAULT_TURNS)")
}

func runSeedProfiles(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(profilesFile)
	if err != nil {
		return err
	}
	var profiles []dto.CreateSimProfileRequest
	if err := yaml.Unmarshal(raw, &profiles); err != nil {
		return fmt.Errorf("parse %s: %w", profilesFile, err)
	}

	for i := range profiles {
		res, err := container.SimulatorService.CreateProfile(cmdCtx, &profiles[i])
		if err != nil {
			return fmt.Errorf("profile %q: %w", profiles[i].Name, err)
		}
		fmt.Printf("%s %s\n", color.GreenString("created"), res.Name)
		fmt.Printf("  %s\n", color.New(color.FgCyan).Sprint(res.Id))
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	profileId, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid profile id: %w", err)
	}

	req := &dto.StartRunRequest{ProfileId: profileId, Mode: constant.RunModeAutomated}
	if numTurns > 0 {
		req.NumTurns = &numTurns
	}
	run, err := container.SimulatorService.StartRun(cmdCtx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run %s started\n", color.New(color.FgCyan).Sprint(run.Id))

	final, err := container.SimulatorService.Drive(cmdCtx, uuid.Nil, run.Id)
	if err != nil {
		return err
	}

	detail, err := container.SimulatorService.GetRun(cmdCtx, final.Id)
	if err != nil {
		return err
	}
	for _, m := range detail.Messages {
		who := color.New(color.FgYellow).Sprint("user ")
		if m.Role == constant.MessageRoleAssistant {
			who = color.New(color.FgHiMagenta).Sprint("coach")
		}
		fmt.Printf("%s  %s\n", who, m.Content)
	}
	printRun(final)
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	runId, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id: %w", err)
	}
	run, err := container.SimulatorService.ReEvaluate(cmdCtx, runId)
	if err != nil {
		return err
	}
	printRun(run)
	return nil
}

func printRun(run *dto.SimulatorRunResponse) {
	status := color.GreenString(run.Status)
	if run.Status == constant.RunStatusFailed {
		status = color.RedString(run.Status)
	}
	fmt.Printf("\nrun %s %s", run.Id, status)
	if run.StopReason != "" {
		fmt.Printf(" (%s)", run.StopReason)
	}
	fmt.Println()
	if run.ErrorMessage != "" {
		fmt.Printf("  %s\n", color.RedString(run.ErrorMessage))
	}

	eval := run.CardEvaluation
	if eval == nil {
		return
	}
	fmt.Printf("  card-worthy %d of %d assistant messages\n", eval.CardWorthyCount, eval.TotalMessages)
	categories := make([]string, 0, len(eval.Categories))
	for c := range eval.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("  %-18s %d\n", c, eval.Categories[c])
	}
}
