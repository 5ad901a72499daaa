package scorer

import (
	"cadence/internal/score"
	"context"
	"log/slog"
	"sync"
)

// DefaultBatchConcurrency bounds parallel fetches when no limit is configured.
const DefaultBatchConcurrency = 8

// BatchScorer scores many users against one shared reference date. Sessions are fetched
// in parallel; a user whose fetch fails is scored over an empty session list.
type BatchScorer struct {
	scorer *UserScorer
	sem    chan struct{}
}

// BatchResult holds the outcome of a batch. A user that could not be scored has an entry
// in Errors and none in Scores.
type BatchResult struct {
	Scores map[string]*score.ConsistencyScore
	Errors map[string]error
}

// NewBatchScorer creates a batch scorer running at most concurrency fetches at once.
func NewBatchScorer(scorer *UserScorer, concurrency int) *BatchScorer {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &BatchScorer{
		scorer: scorer,
		sem:    make(chan struct{}, concurrency),
	}
}

// ScoreUsers scores every distinct user ID. An invalid timezone fails the whole batch
// before anything is fetched. A cancelled context aborts the batch with its error.
func (bs *BatchScorer) ScoreUsers(ctx context.Context, userIDs []string, opts ScoreOptions) (*BatchResult, error) {
	opts, loc, err := bs.scorer.resolve(opts)
	if err != nil {
		return nil, err
	}

	results := &BatchResult{
		Scores: make(map[string]*score.ConsistencyScore, len(userIDs)),
		Errors: make(map[string]error),
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		wg.Add(1)
		go func(userID string) {
			defer wg.Done()

			bs.sem <- struct{}{}
			sessions, err := bs.scorer.fetch(ctx, userID, opts.ReferenceDate, loc)
			<-bs.sem

			if err != nil {
				slog.Warn("Session fetch failed, scoring without sessions", "user", userID, "error", err)
				sessions = []score.Session{}
			}

			result, err := bs.scorer.compute(userID, sessions, opts, loc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Unable to score user", "user", userID, "error", err)
				results.Errors[userID] = err
				return
			}
			results.Scores[userID] = result
		}(userID)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
