package main

import (
	"cadence/internal/clock"
	"cadence/internal/configuration"
	"cadence/internal/dataset"
	"cadence/internal/score/rule"
	"cadence/internal/score/scorer"
	"cadence/internal/session"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// prepareLogger настраивает глобальный логгер slog с JSON-выводом в out.
// Нераспознанный уровень трактуется как Info.
func prepareLogger(level string, out io.Writer) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// При ошибке любой команды приложение завершается с кодом 1.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cadence",
		Short:         "Workout consistency scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (YAML)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newScoreCmd(&configPath))
	root.AddCommand(newImportCmd(&configPath))
	return root
}

// loadConfig reads the configuration and installs the logger it asks for, writing to logOut.
func loadConfig(configPath string, logOut io.Writer) (*configuration.AppConfig, error) {
	config, err := configuration.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	prepareLogger(config.Logger.Level, logOut)
	return config, nil
}

// openRepository builds the session repository selected by the storage driver.
func openRepository(cfg configuration.StorageConfig, clk clock.Clock) (session.Repository, error) {
	switch cfg.Driver {
	case configuration.StorageDriverSQLite:
		return session.NewSQLiteRepository(cfg.Path, cfg.MaxSessions, clk)
	case configuration.StorageDriverMemory:
		repo := session.NewMemoryRepository(cfg.SessionsLength, cfg.MaxSessions, cfg.SessionsTtl, clk)
		go repo.Serve()
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// loadFilter compiles the admission rules; an empty path admits every session.
func loadFilter(path string) (*rule.Filter, error) {
	if path == "" {
		return rule.NewFilter(nil), nil
	}
	rules, err := rule.LoadFromFile(path, rule.NewSessionEnv)
	if err != nil {
		return nil, fmt.Errorf("unable to load rules %s: %w", path, err)
	}
	slog.Info("Rules loaded", "file", path, "count", len(rules))
	return rule.NewFilter(rules), nil
}

// services bundles what the commands need to score users.
type services struct {
	repo       session.Repository
	scoreLog   *dataset.ScoreLog
	userScorer *scorer.UserScorer
}

func (s *services) Close() {
	if s.scoreLog != nil {
		if err := s.scoreLog.Close(); err != nil {
			slog.Error("Score log close", "error", err)
		}
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			slog.Error("Session repository close", "error", err)
		}
	}
}

func buildServices(config *configuration.AppConfig, clk clock.Clock) (*services, error) {
	filter, err := loadFilter(config.Scoring.Rules)
	if err != nil {
		return nil, err
	}

	repo, err := openRepository(config.Storage, clk)
	if err != nil {
		return nil, err
	}

	s := &services{repo: repo}
	var recorder scorer.Recorder
	if config.Dataset.File != "" {
		s.scoreLog = dataset.NewScoreLog(config.Dataset.File, config.Dataset.Size, config.Dataset.Amount)
		recorder = s.scoreLog
	}

	s.userScorer = scorer.NewUserScorer(repo, filter, recorder, clk, config.Scoring.DefaultTimezone)
	return s, nil
}
