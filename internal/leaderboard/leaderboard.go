// Package leaderboard ranks contributors by submissions within a time window.
package leaderboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"
)

// Window selects how far back submissions are counted.
type Window string

// Windows
const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// ParseWindow validates a window name.
func ParseWindow(raw string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(raw))); w {
	case WindowDaily, WindowWeekly, WindowMonthly:
		return w, nil
	}
	return "", contextutils.WrapErrorf(contextutils.ErrInvalidWindow, "unknown leaderboard window %q", raw)
}

// WindowStart returns the first instant of the window containing now, in loc.
// Weeks start on Sunday.
func WindowStart(now time.Time, window Window, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	y, m, d := t.Date()
	switch window {
	case WindowDaily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case WindowMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, loc)
	}
}

const maskMarker = "***@"

// MaskEmail hides most of the local part: one character is kept when the
// local part has at most three, otherwise three. ok is false when the
// address cannot be masked meaningfully.
func MaskEmail(email string) (masked string, ok bool) {
	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	local, domain := []rune(parts[0]), parts[1]

	keep := 3
	if len(local) <= 3 {
		keep = 1
	}
	masked = string(local[:keep]) + maskMarker + domain
	if strings.Contains(masked, "undefined") {
		return "", false
	}
	return masked, true
}

// Aggregator computes leaderboards from the record store.
type Aggregator struct {
	store  store.RecordStore
	logger *observability.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewAggregator creates an Aggregator. A nil loc means time.Local.
func NewAggregator(s store.RecordStore, logger *observability.Logger, loc *time.Location) *Aggregator {
	if s == nil {
		panic("NewAggregator: store is nil")
	}
	if logger == nil {
		panic("NewAggregator: logger is nil")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{store: s, logger: logger, loc: loc, now: time.Now}
}

type tally struct {
	name  string
	email string
	ok    bool
	count int
}

// TopContributors returns up to limit contributors ranked by submission
// count since the start of window. Ties keep the order in which contributors
// were first seen, newest submission first. A store failure yields an empty
// result.
func (a *Aggregator) TopContributors(ctx context.Context, limit int, window Window) []models.LeaderboardEntry {
	ctx, span := observability.TraceLeaderboardFunction(ctx, "top_contributors",
		observability.AttributeLimit(limit),
		observability.AttributeWindow(string(window)),
	)
	defer span.End()

	entries := []models.LeaderboardEntry{}
	if limit <= 0 {
		return entries
	}

	start := WindowStart(a.now(), window, a.loc)
	records, err := a.store.List(ctx, store.ListFilter{CreatedSince: &start, RequireCreator: true})
	if err != nil {
		span.RecordError(err)
		a.logger.Error(ctx, "failed to load leaderboard records", err, map[string]interface{}{
			"window": string(window),
			"since":  start.Format(time.RFC3339),
		})
		return entries
	}

	order := []string{}
	tallies := map[string]*tally{}
	for _, r := range records {
		if r.CreatedBy == nil {
			continue
		}
		key := *r.CreatedBy
		t, seen := tallies[key]
		if !seen {
			masked, ok := MaskEmail(r.Email)
			t = &tally{name: r.Name, email: masked, ok: ok}
			tallies[key] = t
			order = append(order, key)
		}
		t.count++
	}

	ranked := make([]*tally, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, tallies[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })

	for _, t := range ranked {
		if !t.ok {
			continue
		}
		if len(entries) == limit {
			break
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:        len(entries) + 1,
			Name:        t.name,
			MaskedEmail: t.email,
			Count:       t.count,
		})
	}

	a.logger.Debug(ctx, "leaderboard computed", map[string]interface{}{
		"window":       string(window),
		"records":      len(records),
		"contributors": len(order),
		"returned":     len(entries),
	})
	return entries
}
