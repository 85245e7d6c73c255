package cli

import (
	"fmt"

	"classical-quiz-service/internal/app"
	"classical-quiz-service/internal/config"
	"classical-quiz-service/internal/logger"
	transport "classical-quiz-service/internal/transport/http"
	"classical-quiz-service/internal/tui"
	"github.com/spf13/cobra"
)

// NewPlayCmd plays the quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		resumeID string
		logFile  string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			log, err := playLogger(cfg, logFile)
			if err != nil {
				return err
			}
			defer log.Sync()

			deps, err := buildComponents(cmd.Context(), cfg, log, true)
			if err != nil {
				return err
			}
			defer deps.Close()

			service := app.NewGameService(deps.catalog, deps.scores, deps.games, deps.handoffs, log, deps.serviceOptions(cfg)...)
			opts := tui.Options{
				ResumeID:    resumeID,
				RevealDelay: config.TTLDuration(cfg.Quiz.RevealDelay, transport.DefaultRevealDelay),
			}
			if deps.session != nil {
				opts.Feed = deps.session
			}
			res, err := tui.Run(cmd.Context(), service, opts)
			if err != nil {
				return fmt.Errorf("terminal ui: %w", err)
			}
			if res.GameID != "" && !res.Over {
				cmd.Printf("Game %s saved. Resume with: classical-quiz play --resume %s\n", res.GameID, res.GameID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume", "", "resume a carried-over game by id")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")
	return cmd
}

// playLogger keeps log output off the terminal while the UI owns it.
func playLogger(cfg config.Config, path string) (*logger.Logger, error) {
	if path == "" {
		return logger.Nop(), nil
	}
	return logger.NewFile(cfg.Log.Level, path)
}
