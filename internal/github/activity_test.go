package github

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeActivity(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	var events []Event
	for i := range 14 {
		typ := "PushEvent"
		if i%3 == 0 {
			typ = "IssuesEvent"
		}
		events = append(events, Event{ID: fmt.Sprint(i), Type: typ, CreatedAt: now.AddDate(0, 0, -i)})
	}
	// Older than the window.
	events = append(events, Event{ID: "old", Type: "PushEvent", CreatedAt: now.AddDate(0, 0, -40)})

	a := SummarizeActivity(events, now.AddDate(0, 0, -30))

	assert.Equal(t, 14, a.TotalContributions)
	assert.Equal(t, 5, a.ContributionTypes["IssuesEvent"])
	assert.Equal(t, 9, a.ContributionTypes["PushEvent"])
	assert.Len(t, a.RecentEvents, 10)
	assert.Equal(t, "0", a.RecentEvents[0].ID)
	assert.Len(t, a.ActivityDates, 14)
}

func TestSummarizeActivity_Empty(t *testing.T) {
	a := SummarizeActivity(nil, time.Now())
	assert.Zero(t, a.TotalContributions)
	assert.NotNil(t, a.ContributionTypes)
	assert.NotNil(t, a.RecentEvents)
}

func TestOwnerActivity(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octo/events", r.URL.Path)
		fmt.Fprintf(w, `[{"id":"1","type":"PushEvent","created_at":%q},{"id":"2","type":"WatchEvent","created_at":%q}]`,
			now.Add(-time.Hour).Format(time.RFC3339), now.AddDate(0, -2, 0).Format(time.RFC3339))
	}), 0)

	a, err := c.OwnerActivity(context.Background(), "octo", 30, now)
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalContributions)
	assert.Equal(t, map[string]int{"PushEvent": 1}, a.ContributionTypes)
}
