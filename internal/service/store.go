package service

import (
	"slices"
	"sync"

	"polyglot/backend/internal/model"
)

// subscriberBuffer is the number of undelivered events kept per observer.
const subscriberBuffer = 16

// Store is the observable state container owned by the ConversationService.
// Every mutation goes through one locked update and is published to all
// observers as a snapshot, so observers never see a partial change.
type Store struct {
	mu        sync.Mutex
	state     model.State
	followUps []model.Message
	subs      map[int]chan model.Event
	nextSub   int
}

// NewStore creates an empty store.
func NewStore(settings model.Settings) *Store {
	return &Store{
		state: model.State{Settings: settings},
		subs:  make(map[int]chan model.Event),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// FollowUps returns a copy of the follow-up log.
func (s *Store) FollowUps() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.followUps)
}

// Update applies fn to the state and notifies observers.
func (s *Store) Update(fn func(st *model.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	snap := s.snapshotLocked()
	s.publishLocked(model.Event{Type: model.EventState, State: &snap})
}

// UpdateFollowUps replaces the follow-up log with fn's result and notifies observers.
func (s *Store) UpdateFollowUps(fn func(msgs []model.Message) []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.followUps = fn(s.followUps)
	s.publishLocked(model.Event{Type: model.EventFollowUps, FollowUps: slices.Clone(s.followUps)})
}

// Notify publishes a transient notification. The state is not touched.
func (s *Store) Notify(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(model.Event{Type: model.EventNotification, Notification: &n})
}

// Subscribe registers an observer. The current state is delivered first. The
// returned function unregisters the observer and closes the channel.
func (s *Store) Subscribe() (<-chan model.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan model.Event, subscriberBuffer)
	snap := s.snapshotLocked()
	ch <- model.Event{Type: model.EventState, State: &snap}
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store) snapshotLocked() model.State {
	snap := s.state
	snap.Messages = slices.Clone(s.state.Messages)
	return snap
}

// publishLocked never blocks: a full observer loses its oldest event.
func (s *Store) publishLocked(ev model.Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// replaceMessage swaps the message with msg.ID in place.
func replaceMessage(msgs []model.Message, msg model.Message) bool {
	for i := range msgs {
		if msgs[i].ID == msg.ID {
			msgs[i] = msg
			return true
		}
	}
	return false
}

// findMessage returns the message with id.
func findMessage(msgs []model.Message, id string) (model.Message, bool) {
	for _, m := range msgs {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}

// removeMessage drops the message with id.
func removeMessage(msgs []model.Message, id string) []model.Message {
	return slices.DeleteFunc(msgs, func(m model.Message) bool { return m.ID == id })
}

// removePending drops every pending message.
func removePending(msgs []model.Message) []model.Message {
	return slices.DeleteFunc(msgs, func(m model.Message) bool { return m.Pending })
}
