package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// recentEventLimit is how many events an Activity keeps verbatim.
const recentEventLimit = 10

// GetUserEvents returns the first page of public events for login.
func (c *Client) GetUserEvents(ctx context.Context, login string) ([]Event, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.perPage))

	var events []Event
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(login)+"/events", q, &events); err != nil {
		return nil, fmt.Errorf("fetching events for %s: %w", login, err)
	}
	return events, nil
}

// OwnerActivity summarizes the events login produced in the last days days.
func (c *Client) OwnerActivity(ctx context.Context, login string, days int, now time.Time) (Activity, error) {
	events, err := c.GetUserEvents(ctx, login)
	if err != nil {
		return Activity{}, err
	}
	return SummarizeActivity(events, now.AddDate(0, 0, -days)), nil
}

// SummarizeActivity counts events created at or after since. Events are
// expected newest first, as the API returns them.
func SummarizeActivity(events []Event, since time.Time) Activity {
	a := Activity{
		ContributionTypes: make(map[string]int),
		RecentEvents:      []Event{},
		ActivityDates:     []time.Time{},
	}
	for _, e := range events {
		if e.CreatedAt.Before(since) {
			continue
		}
		a.TotalContributions++
		a.ContributionTypes[e.Type]++
		a.ActivityDates = append(a.ActivityDates, e.CreatedAt)
		if len(a.RecentEvents) < recentEventLimit {
			a.RecentEvents = append(a.RecentEvents, e)
		}
	}
	return a
}
