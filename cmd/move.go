package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/executor"
	"github.com/nsavage/relocore/internal/planner"
	"github.com/nsavage/relocore/internal/session"
)

var (
	moveProjectRoot string
	movePlanOnly    bool
	moveForce       bool
	moveDryRun      bool
)

func registerMoveFlags(c *cobra.Command) {
	c.Flags().StringVar(&moveProjectRoot, "project-root", ".", "workspace root the old/new paths are relative to")
	c.Flags().BoolVar(&movePlanOnly, "plan-only", false, "print the plan as JSON instead of applying it")
	c.Flags().BoolVar(&moveForce, "force", false, "allow planning onto a destination that already exists")
	c.Flags().BoolVar(&moveDryRun, "dry-run", false, "apply the plan without touching disk")
}

var moveFileCmd = &cobra.Command{
	Use:   "move-file OLD_PATH NEW_PATH",
	Short: "Plan, and by default apply, a single-file move",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		plan, err := s.PlanFileMove(context.Background(), moveProjectRoot, args[0], args[1], planner.MoveOptions{Force: moveForce})
		if err != nil {
			return err
		}
		return emitOrApply(cmd, s, plan)
	},
}

var moveDirCmd = &cobra.Command{
	Use:   "move-dir OLD_PATH NEW_PATH",
	Short: "Plan, and by default apply, a directory move",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		plan, err := s.PlanDirectoryMove(context.Background(), moveProjectRoot, args[0], args[1], planner.MoveOptions{Force: moveForce})
		if err != nil {
			return err
		}
		return emitOrApply(cmd, s, plan)
	},
}

func init() {
	registerMoveFlags(moveFileCmd)
	registerMoveFlags(moveDirCmd)
	rootCmd.AddCommand(moveFileCmd)
	rootCmd.AddCommand(moveDirCmd)
}

// emitOrApply either prints plan as JSON (--plan-only) or applies it
// through the Session's executor and prints the resulting summary.
func emitOrApply(cmd *cobra.Command, s *session.Session, plan *editplan.Plan) error {
	if movePlanOnly {
		return printJSON(cmd, plan)
	}

	result, err := s.ApplyPlan(context.Background(), moveProjectRoot, plan, executor.Options{DryRun: moveDryRun})
	if err != nil {
		return err
	}
	printResultSummary(cmd, result)
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
