package main

import (
	"cadence/internal/clock"
	"cadence/internal/configuration"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newImportCmd(configPath *string) *cobra.Command {
	var file, user string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Insert sessions from a file into the SQLite store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" || user == "" {
				return errors.New("--file and --user are required")
			}

			config, err := loadConfig(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if config.Storage.Driver != configuration.StorageDriverSQLite {
				return fmt.Errorf("import needs storage.driver %q, got %q", configuration.StorageDriverSQLite, config.Storage.Driver)
			}

			sessions, err := readSessions(file)
			if err != nil {
				return err
			}

			repo, err := openRepository(config.Storage, clock.SystemClock{})
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Insert(cmd.Context(), user, sessions); err != nil {
				return err
			}

			slog.Info("Sessions imported", "user", user, "count", len(sessions))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d sessions for %s\n", len(sessions), user)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON or YAML file with a list of sessions")
	cmd.Flags().StringVar(&user, "user", "", "user the sessions belong to")
	return cmd
}
