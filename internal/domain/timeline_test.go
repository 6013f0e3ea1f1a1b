package domain

import (
	"testing"
	"time"
)

func TestApplyTimelineStepAppends(t *testing.T) {
	now := time.Now()
	events := ApplyTimelineStep(nil, StatusStep[StatusCreated], now, "seller1")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].Completed || events[0].User != "seller1" {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestApplyTimelineStepAmendsMatch(t *testing.T) {
	base := time.Now()
	events := []TimelineEvent{
		{Step: StatusStep[StatusCreated], Date: base, Completed: true, User: "seller1"},
		{Step: StatusStep[StatusSentToWorkshop], Date: base.Add(time.Hour)},
	}

	events = ApplyTimelineStep(events, StatusStep[StatusSentToWorkshop], base.Add(2*time.Hour), "courier1")
	if len(events) != 2 {
		t.Fatalf("expected amend, not append; got %d events", len(events))
	}
	last := events[len(events)-1]
	if last.Step != StatusStep[StatusSentToWorkshop] || !last.Completed || last.User != "courier1" {
		t.Errorf("step not amended: %+v", last)
	}
}

func TestApplyTimelineStepKeepsAscendingOrder(t *testing.T) {
	base := time.Now()
	events := []TimelineEvent{
		{Step: StatusStep[StatusReceived], Date: base.Add(3 * time.Hour), Completed: true},
		{Step: StatusStep[StatusCreated], Date: base, Completed: true},
	}

	events = ApplyTimelineStep(events, StatusStep[StatusInRepair], base.Add(time.Hour), "tech1")
	for i := 1; i < len(events); i++ {
		if events[i].Date.Before(events[i-1].Date) {
			t.Fatalf("timeline not sorted ascending: %+v", events)
		}
	}
}

func TestStatusStepCoversAllStatuses(t *testing.T) {
	for _, status := range AllStatuses {
		if StatusStep[status] == "" {
			t.Errorf("no timeline step label for status %q", status)
		}
	}
}

func TestStatusValidity(t *testing.T) {
	if RepairStatus("bogus").IsValid() {
		t.Error("unknown status reported valid")
	}
	for _, status := range AllStatuses {
		if !status.IsValid() {
			t.Errorf("status %q reported invalid", status)
		}
	}
	if !StatusCompleted.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Error("terminal statuses misreported")
	}
	if StatusCreated.IsTerminal() {
		t.Error("created reported terminal")
	}
}
