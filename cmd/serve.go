package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/api"
	"github.com/abhisek/coursepath/internal/llm"
	"github.com/abhisek/coursepath/internal/maintenance"
	"github.com/abhisek/coursepath/internal/quizgen"
	"github.com/abhisek/coursepath/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the progress API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		progressRepo, closeProgress, err := openProgressRepo(cmd, cfg, s)
		if err != nil {
			return err
		}
		defer closeProgress()

		gen, err := newQuizGenerator(cmd.Context(), cfg.LLM, s.EventRepo(), logger)
		if err != nil {
			return err
		}

		srv := api.New(api.Deps{
			Courses:   s.CourseRepo(),
			Quizzes:   quizgen.NewService(s.QuizRepo(), gen, logger),
			Progress:  progressRepo,
			Snapshots: s.SnapshotRepo(),
			Attempts:  s.AttemptRepo(),
			Sequence:  s.NextSequence,
			Ping:      s.DB().PingContext,
		}, logger)

		jobs := maintenance.New(s.EventRepo(), maintenance.Options{
			Interval:          cfg.Retention.Interval,
			LLMEventRetention: cfg.Retention.LLMEvents,
			Logger:            logger,
		})
		if err := jobs.Start(); err != nil {
			return err
		}
		defer jobs.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(cfg.Server.Addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	},
}

// newQuizGenerator builds the LLM-backed generator, or returns nil when no
// provider is configured.
func newQuizGenerator(ctx context.Context, cfg llm.Config, events store.EventRepo, logger *zap.Logger) (quizgen.Generator, error) {
	resolved := llm.Resolve(cfg)
	provider, err := llm.NewProvider(ctx, resolved, events, logger)
	if errors.Is(err, llm.ErrDisabled) {
		logger.Warn("no LLM provider configured, quiz generation disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	logger.Info("quiz generation enabled",
		zap.String("provider", resolved.Provider),
		zap.String("model", provider.ModelID()))
	return quizgen.New(provider, quizgen.DefaultConfig()), nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
