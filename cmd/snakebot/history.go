package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/console"
	"github.com/fyrsmithlabs/snakebot/internal/history"
	"github.com/spf13/cobra"
)

// historyLimit is the number of games listed
var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of games to list")
}

// historyCmd lists finished games
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished games",
	Long: `List finished games from the history database, newest first, followed by
win totals.

Examples:
  # Last 20 games
  snakebot history

  # Turn by turn replay of one game
  snakebot history show 2b0c7d1e-...`,
	RunE: runHistory,
}

// historyShowCmd prints the turns of one game
var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the turns of one game",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func openHistory() (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled (history.enabled=false)")
	}
	return history.Open(cfg.History.Path)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	games, err := store.RecentGames(ctx, historyLimit)
	if err != nil {
		return err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printGames(out, games)
	fmt.Fprintf(out, "\n%d games: you won %d, the robot won %d, %d unfinished\n",
		stats.Games, stats.PlayerWins, stats.RobotWins, stats.Unfinished)
	return nil
}

func printGames(out io.Writer, games []history.GameRow) {
	if len(games) == 0 {
		fmt.Fprintln(out, "No games recorded yet.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tFINISHED\tWINNER\tYOU\tROBOT\tTURNS\tERROR")
	for _, g := range games {
		winner := g.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			g.SessionID, g.FinishedAt.Local().Format(time.DateTime), winner,
			g.PlayerPosition, g.RobotPosition, g.Turns, g.Error)
	}
	_ = w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	turns, err := store.Turns(ctx, args[0])
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no turns recorded for game %s", args[0])
	}

	out := cmd.OutOrStdout()
	printTurns(out, turns)

	player, robot := traces(turns)
	fmt.Fprintf(out, "\nYour piece\n%s\n", console.RenderTrace(player))
	fmt.Fprintf(out, "\nRobot piece\n%s\n", console.RenderTrace(robot))
	return nil
}

func printTurns(out io.Writer, turns []history.TurnRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TURN\tACTOR\tROLL\tFROM\tLANDING\tFINAL\tCOLLISION\tBUMPED\tOUTCOME")
	for _, t := range turns {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%t\t%t\t%s\n",
			t.Number, t.Actor, t.Roll, t.From, t.Landing, t.Final,
			t.PreMoveCollision, t.Bumped, t.Outcome)
	}
	_ = w.Flush()
}

// traces returns each side's position after every turn of that side.
func traces(turns []history.TurnRow) (player, robot []float64) {
	for _, t := range turns {
		switch t.Actor {
		case "player":
			player = append(player, float64(t.Final))
		case "robot":
			robot = append(robot, float64(t.Final))
		}
	}
	return player, robot
}
