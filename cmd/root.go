package cmd

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/semmlerino/curveditor/internal/app"
	"github.com/semmlerino/curveditor/internal/config"
)

var logFile string

var rootCmd = &cobra.Command{
	Use:   "curveditor [track files...]",
	Short: "Interactive 2D tracking-curve editor",
	Long: `CurvEditor loads per-frame point trajectories, visualizes them over an
image-sequence timeline, and lets you select and edit points with full
undo/redo.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger := newLogger()

		m := app.New(cfg, logger, args)
		p := tea.NewProgram(
			m,
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)
		if _, err := p.Run(); err != nil {
			log.Fatal(err)
		}
	},
}

// newLogger writes diagnostics to a file when --log is given. Logging
// to the terminal would fight the alt screen.
func newLogger() *slog.Logger {
	if logFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err == nil {
		if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			return slog.New(slog.NewTextHandler(f, nil))
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&logFile, "log", "", "write diagnostic log to file")
}
