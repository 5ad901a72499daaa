package main

import (
	"cadence/internal/clock"
	"cadence/internal/render"
	"cadence/internal/score"
	"cadence/internal/score/scorer"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newScoreCmd(configPath *string) *cobra.Command {
	var (
		file, user          string
		timezone, reference string
		asJSON              bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score sessions from a file or a stored user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (user == "") {
				return errors.New("exactly one of --file or --user is required")
			}

			config, err := loadConfig(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			opts, err := scorer.ParseOptions(reference, cmp.Or(timezone, config.Scoring.DefaultTimezone))
			if err != nil {
				return err
			}

			var result *score.ConsistencyScore
			if file != "" {
				sessions, err := readSessions(file)
				if err != nil {
					return err
				}
				filter, err := loadFilter(config.Scoring.Rules)
				if err != nil {
					return err
				}
				us := scorer.NewUserScorer(nil, filter, nil, clock.SystemClock{}, config.Scoring.DefaultTimezone)
				if result, err = us.Evaluate(sessions, opts); err != nil {
					return err
				}
			} else {
				svc, err := buildServices(config, clock.SystemClock{})
				if err != nil {
					return err
				}
				defer svc.Close()
				if result, err = svc.userScorer.Score(cmd.Context(), user, opts); err != nil {
					return err
				}
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}
			return render.Write(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON or YAML file with a list of sessions")
	cmd.Flags().StringVar(&user, "user", "", "score a stored user instead of a file")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone (default from configuration)")
	cmd.Flags().StringVar(&reference, "reference", "", "reference date, RFC 3339 or YYYY-MM-DD (default now)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// readSessions decodes a list of sessions. Files ending in .yaml or .yml are YAML,
// everything else is JSON.
func readSessions(path string) ([]score.Session, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sessions []score.Session
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &sessions)
	default:
		err = json.Unmarshal(content, &sessions)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decode sessions %s: %w", path, err)
	}
	return sessions, nil
}
