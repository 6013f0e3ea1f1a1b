package domain

import (
	"sort"
	"time"
)

// TimelineEvent is one human-readable milestone on a repair's timeline.
type TimelineEvent struct {
	Step      string
	Date      time.Time
	Completed bool
	User      string
}

// SortTimeline orders events by date ascending, in place.
func SortTimeline(events []TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}

// ApplyTimelineStep marks the entry whose step matches label as completed, or
// appends a new completed entry when none exists. The returned slice is sorted
// by date ascending.
func ApplyTimelineStep(events []TimelineEvent, label string, at time.Time, user string) []TimelineEvent {
	updated := false
	for i := range events {
		if events[i].Step == label {
			events[i].Completed = true
			events[i].Date = at
			events[i].User = user
			updated = true
			break
		}
	}
	if !updated {
		events = append(events, TimelineEvent{
			Step:      label,
			Date:      at,
			Completed: true,
			User:      user,
		})
	}
	SortTimeline(events)
	return events
}
