package tickets

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfter(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type ticketKey struct {
	guildID string
	userID  string
}

// Registry tracks open ticket channels per (guild, user) and the pending
// blank-ticket cleanup timer of each channel. A reserved entry with no
// channel yet blocks a second ticket while the first is being created.
type Registry struct {
	mu       sync.Mutex
	channels map[ticketKey]string
	owners   map[string]ticketKey
	timers   map[string]Timer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[ticketKey]string),
		owners:   make(map[string]ticketKey),
		timers:   make(map[string]Timer),
	}
}

// Reserve claims the ticket slot of a user. It fails and returns the open
// channel, possibly empty while a creation is in flight, when one exists.
func (r *Registry) Reserve(guildID, userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ticketKey{guildID, userID}
	if existing, ok := r.channels[key]; ok {
		return existing, false
	}
	r.channels[key] = ""
	return "", true
}

// Release drops a reservation that never got a channel.
func (r *Registry) Release(guildID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ticketKey{guildID, userID}
	if r.channels[key] == "" {
		delete(r.channels, key)
	}
}

// Open records channelID as the user's ticket.
func (r *Registry) Open(guildID, userID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ticketKey{guildID, userID}
	r.channels[key] = channelID
	r.owners[channelID] = key
}

// Channel returns the user's open ticket channel.
func (r *Registry) Channel(guildID, userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := r.channels[ticketKey{guildID, userID}]
	return ch, ch != ""
}

// Owner returns the user a ticket channel belongs to.
func (r *Registry) Owner(channelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.owners[channelID]
	return key.userID, ok
}

// Remove forgets a ticket channel and cancels its timer.
func (r *Registry) Remove(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked(channelID)
	key, ok := r.owners[channelID]
	if !ok {
		return false
	}
	delete(r.owners, channelID)
	if r.channels[key] == channelID {
		delete(r.channels, key)
	}
	return true
}

// Arm sets the blank-ticket timer of a channel, replacing any previous one.
func (r *Registry) Arm(channelID string, t Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked(channelID)
	r.timers[channelID] = t
}

// Disarm cancels the channel's timer. It reports whether one was pending.
func (r *Registry) Disarm(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked(channelID)
}

// Expire drops the timer entry of a channel whose timer already fired.
func (r *Registry) Expire(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, channelID)
}

func (r *Registry) stopLocked(channelID string) bool {
	t, ok := r.timers[channelID]
	if !ok {
		return false
	}
	delete(r.timers, channelID)
	if t != nil {
		t.Stop()
	}
	return true
}

// StopAll cancels every pending timer.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.timers {
		r.stopLocked(id)
	}
}

// Len is the number of open tickets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}
