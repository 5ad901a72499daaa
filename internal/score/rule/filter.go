package rule

import (
	"cadence/internal/score"
	"log/slog"
	"time"
)

// Filter decides which sessions take part in scoring. Rules are tried in order and the
// first match decides; a session no rule matches is included. Rules only admit or drop
// sessions, they never weight them.
type Filter struct {
	rules []Rule
}

// NewFilter returns a filter over initialized rules. A nil or empty rule list admits everything.
func NewFilter(rules []Rule) *Filter {
	return &Filter{rules: rules}
}

// Admit reports whether a single session is admitted.
func (f *Filter) Admit(s score.Session, loc *time.Location) bool {
	if f == nil || len(f.rules) == 0 {
		return true
	}

	activation := Activation(s, loc)
	for i := range f.rules {
		matched, err := f.rules[i].Eval(activation)
		if err != nil {
			slog.Warn("Rule evaluation failed", "rule", f.rules[i].When, "session", s.ID, "error", err)
			continue
		}
		if matched {
			return f.rules[i].Then != Exclude
		}
	}
	return true
}

// Apply returns the admitted sessions in their input order. The input is not modified.
// Sessions without a timestamp are always kept so that scoring can reject them.
func (f *Filter) Apply(sessions []score.Session, loc *time.Location) []score.Session {
	if f == nil || len(f.rules) == 0 {
		return sessions
	}

	admitted := make([]score.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Timestamp.IsZero() || f.Admit(s, loc) {
			admitted = append(admitted, s)
		}
	}
	return admitted
}
