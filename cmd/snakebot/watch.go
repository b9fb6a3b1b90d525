package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fyrsmithlabs/snakebot/internal/monitor"
	"github.com/spf13/cobra"
)

var (
	// watchServer is the base URL of a running `snakebot serve`
	watchServer string
	// watchInterval is the poll interval
	watchInterval time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchServer, "server", "", "game server URL (default from server.host and server.port)")
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", time.Second, "poll interval")
}

// watchCmd follows a served game in the terminal
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a served game in the terminal",
	Long: `Follow the game run by 'snakebot serve': the board, both positions, a trace
of each piece over the game and, when the server keeps history, the win totals.

Examples:
  # Watch the local server
  snakebot watch

  # Watch another host every 500ms
  snakebot watch --server http://tabletop:5001 -i 500ms`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchInterval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", watchInterval)
	}

	url := watchServer
	if url == "" {
		url = serverURL(cfg.Server.Host, cfg.Server.Port)
	}

	model := monitor.NewModel(url, watchInterval, cfg.Board)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// serverURL builds a client URL for a listen address.
func serverURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
