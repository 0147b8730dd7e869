package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/nsavage/relocore/internal/editplan"
)

var (
	extractStartLine, extractStartCol int
	extractEndLine, extractEndCol     int
	extractPosLine, extractPosCol     int
)

func registerRangeFlags(c *cobra.Command) {
	c.Flags().IntVar(&extractStartLine, "start-line", 0, "0-indexed start line of the extracted range")
	c.Flags().IntVar(&extractStartCol, "start-col", 0, "0-indexed start column (bytes) of the extracted range")
	c.Flags().IntVar(&extractEndLine, "end-line", 0, "0-indexed end line of the extracted range")
	c.Flags().IntVar(&extractEndCol, "end-col", 0, "0-indexed end column (bytes) of the extracted range")
}

func registerPositionFlags(c *cobra.Command) {
	c.Flags().IntVar(&extractPosLine, "line", 0, "0-indexed line of the variable reference")
	c.Flags().IntVar(&extractPosCol, "col", 0, "0-indexed column (bytes) of the variable reference")
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func rangeLocation() editplan.Location {
	return editplan.Location{
		Start: editplan.Position{Line: extractStartLine, Column: extractStartCol},
		End:   editplan.Position{Line: extractEndLine, Column: extractEndCol},
	}
}

var extractFunctionCmd = &cobra.Command{
	Use:   "extract-function FILE NAME",
	Short: "Plan extracting the selected range into a new function named NAME",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		plan, err := s.PlanExtractFunction(context.Background(), args[0], source, rangeLocation(), args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd, plan)
	},
}

var extractVariableCmd = &cobra.Command{
	Use:   "extract-variable FILE NAME",
	Short: "Plan extracting the selected range into a new variable named NAME",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		plan, err := s.PlanExtractVariable(context.Background(), args[0], source, rangeLocation(), args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd, plan)
	},
}

var extractConstantCmd = &cobra.Command{
	Use:   "extract-constant FILE NAME",
	Short: "Plan extracting the selected range into a new constant named NAME",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		plan, err := s.PlanExtractConstant(context.Background(), args[0], source, rangeLocation(), args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd, plan)
	},
}

var inlineVariableCmd = &cobra.Command{
	Use:   "inline-variable FILE",
	Short: "Plan inlining the variable referenced at the given position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		pos := editplan.Position{Line: extractPosLine, Column: extractPosCol}
		plan, err := s.PlanInlineVariable(context.Background(), args[0], source, pos)
		if err != nil {
			return err
		}
		return printJSON(cmd, plan)
	},
}

func init() {
	registerRangeFlags(extractFunctionCmd)
	registerRangeFlags(extractVariableCmd)
	registerRangeFlags(extractConstantCmd)
	registerPositionFlags(inlineVariableCmd)

	rootCmd.AddCommand(extractFunctionCmd)
	rootCmd.AddCommand(extractVariableCmd)
	rootCmd.AddCommand(extractConstantCmd)
	rootCmd.AddCommand(inlineVariableCmd)
}
