package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

// configValidateCmd loads and validates the configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and environment overrides and check the board,
warp table, poses, gripper values and policies.

Examples:
  snakebot config validate --config ./config.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// loadConfig has already validated by the time RunE runs
		out := cmd.OutOrStdout()
		warps := cfg.Board.WarpMap()
		fmt.Fprintf(out, "configuration valid\n")
		fmt.Fprintf(out, "board:     %d fields, %d warps\n", cfg.Board.Length, len(warps))
		fmt.Fprintf(out, "robot:     %s (dwell scale %.2f)\n", cfg.Robot.Driver, cfg.Robot.DwellScale)
		fmt.Fprintf(out, "dice:      %s, fallback %s\n", cfg.Dice.Source, cfg.Dice.Fallback)
		fmt.Fprintf(out, "collision: post-warp %s\n", cfg.Collision.PostWarp)
		return nil
	},
}
