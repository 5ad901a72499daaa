package dataset

import (
	"cadence/internal/score"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// recordTimeLayout is the layout of the "time" field of every record.
const recordTimeLayout = "2006-01-02 15:04:05"

// recordHandler is a slog handler that writes each record as one flat JSON line:
// the record time plus the record attributes, without level or message.
type recordHandler struct {
	mu  sync.Mutex
	out io.Writer
}

func newRecordHandler(out io.Writer) *recordHandler {
	return &recordHandler{out: out}
}

// Handle serializes a record as a JSONL line.
func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+1)
	attrs["time"] = r.Time.UTC().Format(recordTimeLayout)

	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" && a.Value.Any() != nil {
			attrs[a.Key] = a.Value.Any()
		}
		return true
	})

	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(data, '\n'))
	return err
}

// WithAttrs is not supported
func (h *recordHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	panic("WithAttrs is not supported by recordHandler")
}

// WithGroup is not supported
func (h *recordHandler) WithGroup(_ string) slog.Handler {
	panic("WithGroup is not supported by recordHandler")
}

// Enabled always returns true.
func (h *recordHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// ScoreLog appends every computed score to a JSONL file with size-based rotation and
// compression via lumberjack. Records look like
//
//	{"time":"2024-03-15 18:00:00","user":"alice","score":{...}}
type ScoreLog struct {
	lumberjack *lumberjack.Logger
	logger     *slog.Logger
}

// NewScoreLog creates a score log.
// Parameters:
// - file: path to the JSONL file
// - maxSize: maximum file size in MB before rotation
// - maxBackups: maximum number of rotated files to keep
func NewScoreLog(file string, maxSize, maxBackups int) *ScoreLog {
	log := ScoreLog{}
	log.lumberjack = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	log.logger = slog.New(newRecordHandler(log.lumberjack))
	return &log
}

// Append writes one record for the user. It is safe for concurrent use.
func (l *ScoreLog) Append(userID string, result *score.ConsistencyScore) {
	l.logger.Info("", "user", userID, "score", result)
}

// Close closes the current file. Should be called on shutdown.
func (l *ScoreLog) Close() error {
	return l.lumberjack.Close()
}
