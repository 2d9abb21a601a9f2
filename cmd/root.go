package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/config"
	"github.com/abhisek/coursepath/internal/logging"
	"github.com/abhisek/coursepath/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "coursepath",
	Short:         "Course progression engine",
	Long:          "coursepath tracks learners through sequential video courses: lecture unlocks, quiz gates, completion and sync with a progress server.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./coursepath.yaml or the user config dir)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides database.dsn)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// openStore opens the configured database. An empty SQLite DSN resolves
// to COURSEPATH_DB or the XDG data dir.
func openStore(cfg *config.Config) (*store.Store, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.Driver == store.DriverSQLite {
		if dsn == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve database path: %w", err)
			}
			dsn = p
		} else if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	s, err := store.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openProgressRepo returns the configured progress backend and a closer.
func openProgressRepo(cmd *cobra.Command, cfg *config.Config, s *store.Store) (store.ProgressRepo, func(), error) {
	if cfg.ProgressBackend != config.BackendRedis {
		return s.ProgressRepo(), func() {}, nil
	}
	r := store.NewRedisProgressRepo(cfg.RedisConfig())
	if err := r.Ping(cmd.Context()); err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return r, func() { r.Close() }, nil
}
