package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/internal/ui"
	"github.com/opsboard/opsboard/realtime"
)

// boardCmd runs the live dashboard.
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the live task board",
	Long: `Open the full-screen task board. The board reloads periodically and
applies realtime change events from the store as they arrive, so it tracks
the whole team's edits without manual refreshing.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	c, gw, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	refresh := time.Duration(GetConfig().Board.RefreshSeconds) * time.Second
	program := tea.NewProgram(ui.NewBoard(c, refresh), tea.WithAltScreen())

	sub := realtime.New(gw, c)
	sub.OnApply = func(ev gateway.ChangeEvent) {
		program.Send(ui.RemoteMsg{Ev: ev})
	}
	if verbose {
		sub.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	if err := sub.Start(); err != nil {
		return fmt.Errorf("start realtime feed: %w", err)
	}
	defer func() { _ = sub.Stop() }()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
