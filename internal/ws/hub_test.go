package ws

import (
	"testing"
)

type fakeSender struct {
	events     []OutEvent
	activeConv uint
	failing    bool
}

func (s *fakeSender) SendEvent(ev OutEvent) bool {
	if s.failing {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *fakeSender) ActiveConversation() uint {
	return s.activeConv
}

func TestHubDeliversToAllUserConnections(t *testing.T) {
	hub := NewHub()

	tab1 := &fakeSender{}
	tab2 := &fakeSender{}
	other := &fakeSender{}

	hub.Register(1, tab1)
	hub.Register(1, tab2)
	hub.Register(2, other)

	delivered := hub.SendToUser(1, OutEvent{Type: EventMessageNew})
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}

	if len(tab1.events) != 1 || len(tab2.events) != 1 {
		t.Errorf("both tabs must receive the event: %d, %d", len(tab1.events), len(tab2.events))
	}
	if len(other.events) != 0 {
		t.Errorf("event leaked to another user: %d events", len(other.events))
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()

	sender := &fakeSender{}
	id := hub.Register(1, sender)

	hub.Unregister(1, id)

	if delivered := hub.SendToUser(1, OutEvent{Type: EventMessageNew}); delivered != 0 {
		t.Errorf("delivered to unregistered connection: %d", delivered)
	}
	if hub.IsOnline(1) {
		t.Error("user reported online after last connection closed")
	}
}

func TestHubOfflineUserIsNotAnError(t *testing.T) {
	hub := NewHub()

	if delivered := hub.SendToUser(42, OutEvent{Type: EventMessageNew}); delivered != 0 {
		t.Errorf("delivered = %d for offline user", delivered)
	}
}

func TestHubCountsMetrics(t *testing.T) {
	hub := NewHub()

	ok := &fakeSender{}
	broken := &fakeSender{failing: true}
	hub.Register(1, ok)
	hub.Register(1, broken)

	hub.SendToUser(1, OutEvent{Type: EventMessageNew})

	if got := hub.Metrics().EventsSent.Load(); got != 1 {
		t.Errorf("EventsSent = %d, want 1", got)
	}
	if got := hub.Metrics().Errors.Load(); got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
	if got := hub.Metrics().Connections.Load(); got != 2 {
		t.Errorf("Connections = %d, want 2", got)
	}
}

func TestHubEachConnectionSkipLogic(t *testing.T) {
	hub := NewHub()

	viewing := &fakeSender{activeConv: 7}
	idle := &fakeSender{}
	hub.Register(1, viewing)
	hub.Register(1, idle)

	notified := 0
	hub.EachConnection(1, func(s EventSender) {
		if s.ActiveConversation() == 7 {
			return
		}
		s.SendEvent(OutEvent{Type: EventBadgeUpdate})
		notified++
	})

	if notified != 1 {
		t.Errorf("notified = %d, want only the idle connection", notified)
	}
	if len(viewing.events) != 0 {
		t.Error("connection viewing the conversation must not get a badge")
	}
}
