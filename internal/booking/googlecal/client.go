// Package googlecal implements the booking.Calendar collaborator against the
// Google Calendar API (free/busy queries plus event listing for capacity
// counting).
package googlecal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/coverlinehq/coverline/internal/booking"
)

// Client queries a single agent calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// New builds a read-only calendar client from service-account credentials.
func New(ctx context.Context, credentialsJSON []byte, calendarID string) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("googlecal: credentials required")
	}
	if strings.TrimSpace(calendarID) == "" {
		return nil, errors.New("googlecal: calendar id required")
	}
	svc, err := calendar.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(calendar.CalendarReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("googlecal: create service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID}, nil
}

var _ booking.Calendar = (*Client)(nil)

// FreeBusy returns the opaque busy blocks for the range.
func (c *Client) FreeBusy(ctx context.Context, start, end time.Time) ([]booking.Interval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: start.UTC().Format(time.RFC3339),
		TimeMax: end.UTC().Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}
	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("googlecal: freebusy query: %w", err)
	}
	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("googlecal: calendar %s missing from freebusy response", c.calendarID)
	}
	out := make([]booking.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		bs, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		be, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		out = append(out, booking.Interval{Start: bs, End: be})
	}
	return out, nil
}

// CountDayEvents counts non-cancelled events starting inside the day.
func (c *Client) CountDayEvents(ctx context.Context, dayStart, dayEnd time.Time) (int, error) {
	call := c.svc.Events.List(c.calendarID).
		TimeMin(dayStart.UTC().Format(time.RFC3339)).
		TimeMax(dayEnd.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		MaxResults(250)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("googlecal: list events: %w", err)
	}
	count := 0
	for _, ev := range resp.Items {
		if ev.Status == "cancelled" || ev.Transparency == "transparent" {
			continue
		}
		count++
	}
	return count, nil
}
