package filter

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout is the date format used by GitHub search qualifiers.
const dateLayout = "2006-01-02"

// ScoreFilter admits repositories whose documentation score lies within
// Range. A disabled filter admits everything.
type ScoreFilter struct {
	Enabled bool
	Range   Range[int]
}

// Admit reports whether a repository with the given score passes the filter.
func (f ScoreFilter) Admit(score int) bool {
	if !f.Enabled {
		return true
	}
	return f.Range.Contains(score)
}

// PushWindow restricts repositories by their last push date. Either a
// relative window in days or an absolute date may be set, never both.
type PushWindow struct {
	WithinDays Bound[int]
	After      Bound[time.Time]
}

// NewPushWindow builds a PushWindow from optional configuration values.
// after must use the YYYY-MM-DD layout.
func NewPushWindow(withinDays *int, after string) (PushWindow, error) {
	w := PushWindow{WithinDays: FromPtr(withinDays)}
	if days, ok := w.WithinDays.Value(); ok && days <= 0 {
		return PushWindow{}, fmt.Errorf("pushed.within_days must be positive, got %d", days)
	}
	after = strings.TrimSpace(after)
	if after != "" {
		if w.WithinDays.IsBounded() {
			return PushWindow{}, fmt.Errorf("pushed.within_days and pushed.after are mutually exclusive")
		}
		t, err := time.Parse(dateLayout, after)
		if err != nil {
			return PushWindow{}, fmt.Errorf("parsing pushed.after: %w", err)
		}
		w.After = Bounded(t)
	}
	return w, nil
}

// Since resolves the window to a cutoff relative to now.
func (w PushWindow) Since(now time.Time) (time.Time, bool) {
	if days, ok := w.WithinDays.Value(); ok {
		return now.AddDate(0, 0, -days), true
	}
	if t, ok := w.After.Value(); ok {
		return t, true
	}
	return time.Time{}, false
}

// Admit reports whether a repository pushed at pushedAt falls in the window.
func (w PushWindow) Admit(pushedAt, now time.Time) bool {
	since, ok := w.Since(now)
	if !ok {
		return true
	}
	// GitHub compares by date; truncate so the query and the local check agree.
	return !pushedAt.UTC().Truncate(24 * time.Hour).Before(since.UTC().Truncate(24 * time.Hour))
}

// Search combines the pre-filters applied when querying for repositories.
type Search struct {
	Stars  Range[int]
	Pushed PushWindow
}

// Query builds the GitHub search query for topic, e.g.
// "topic:go stars:100..500 pushed:>=2024-01-01".
func (s Search) Query(topic string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("topic:")
	sb.WriteString(topic)

	min, hasMin := s.Stars.Min.Value()
	max, hasMax := s.Stars.Max.Value()
	switch {
	case hasMin && hasMax:
		fmt.Fprintf(&sb, " stars:%d..%d", min, max)
	case hasMin:
		fmt.Fprintf(&sb, " stars:>=%d", min)
	case hasMax:
		fmt.Fprintf(&sb, " stars:<=%d", max)
	}

	if since, ok := s.Pushed.Since(now); ok {
		fmt.Fprintf(&sb, " pushed:>=%s", since.UTC().Format(dateLayout))
	}
	return sb.String()
}

// Admit re-applies the pre-filters to a search hit. Search results are
// eventually consistent, so hits are checked locally as well.
func (s Search) Admit(stars int, pushedAt, now time.Time) bool {
	return s.Stars.Contains(stars) && s.Pushed.Admit(pushedAt, now)
}
