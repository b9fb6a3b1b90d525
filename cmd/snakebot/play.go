package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/console"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/spf13/cobra"
)

var (
	// playVerbose keeps info logs on the terminal during a game
	playVerbose bool
	// playDryRun forces the simulated arm
	playDryRun bool
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "log at the configured level instead of warn")
	playCmd.Flags().BoolVar(&playDryRun, "dry-run", false, "use the simulated robot instead of the configured driver")
}

// playCmd runs one game in the terminal
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one game in the terminal",
	Long: `Play one game of snakes and ladders in the terminal.

You roll your own die, type the value and move your piece on the board. The
robot throws its die, reads it and moves its own piece. When a piece has to
go back to field 1 you are asked to confirm once it is there.

Examples:
  # Play against the configured robot
  snakebot play

  # Rehearse without an arm
  snakebot play --dry-run`,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, _ []string) error {
	if playDryRun {
		cfg.Robot.Driver = config.DriverSimulator
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, !playVerbose)
	if err != nil {
		return err
	}
	defer a.Close()

	term := console.New(os.Stdin, cmd.OutOrStdout(), cfg.Board)
	sinks := notify.Fanout{term}
	if a.publisher != nil {
		sinks = append(sinks, a.publisher)
	}

	session, err := a.factory(sinks).NewSession(term)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	res, err := session.Run(ctx)
	switch {
	case errors.Is(err, console.ErrAborted):
		fmt.Fprintln(cmd.OutOrStdout(), "Game abandoned.")
		return nil
	case err != nil:
		return err
	}

	if a.store != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Game %s saved to history.\n", res.SessionID)
	}
	return nil
}
