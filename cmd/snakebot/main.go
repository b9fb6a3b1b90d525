// Snakebot plays snakes and ladders between a person and a robot arm.
//
// Usage:
//
//	# Play in the terminal against a simulated arm
//	SNAKEBOT_ROBOT_DRIVER=simulator snakebot play
//
//	# Serve the web frontend API
//	snakebot serve --config ./config.yaml
//
//	# Show finished games
//	snakebot history
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	// configPath is the YAML file to load; empty means the default location
	configPath string
	// envFile is loaded into the environment before the configuration
	envFile string

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snakebot",
	Short: "Snakes and ladders against a robot arm",
	Long: `snakebot runs a game of snakes and ladders between a person and a robot
arm. The person moves their own piece and reports their rolls; the robot
throws its die, reads it and moves its piece on the physical board.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/snakebot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before configuration")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the env file, if present, then the configuration.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	c, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	// version needs no configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		printVersion(cmd)
	},
}

// printVersion prints version information
func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "snakebot by Fyrsmith Labs\n")
	fmt.Fprintf(out, "Version:    %s\n", version)
	fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(out, "Build Date: %s\n", buildDate)
}
