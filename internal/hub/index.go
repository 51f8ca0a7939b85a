package hub

import "sync"

// ChannelIndex maps channel names to their subscriber connection ids.
// A channel exists iff it has at least one subscriber; empty entries
// are removed rather than left dangling.
type ChannelIndex struct {
	mu       sync.RWMutex
	channels map[string]map[string]struct{}
}

func NewChannelIndex() *ChannelIndex {
	return &ChannelIndex{
		channels: make(map[string]map[string]struct{}),
	}
}

// Subscribe adds the connection to the channel's subscriber set.
func (ci *ChannelIndex) Subscribe(connectionID, channel string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.channels[channel] == nil {
		ci.channels[channel] = make(map[string]struct{})
	}
	ci.channels[channel][connectionID] = struct{}{}
}

// Unsubscribe removes the connection from the channel, deleting the
// channel entry once its subscriber set is empty. Idempotent.
func (ci *ChannelIndex) Unsubscribe(connectionID, channel string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	subs, ok := ci.channels[channel]
	if !ok {
		return
	}
	delete(subs, connectionID)
	if len(subs) == 0 {
		delete(ci.channels, channel)
	}
}

// UnsubscribeAll removes the connection from every listed channel; used
// when a connection closes to unwind its whole membership.
func (ci *ChannelIndex) UnsubscribeAll(connectionID string, channels []string) {
	for _, channel := range channels {
		ci.Unsubscribe(connectionID, channel)
	}
}

// Subscribers returns a snapshot copy of the channel's subscriber ids,
// never a live reference, so fan-out can iterate without holding the
// lock against concurrent subscribes.
func (ci *ChannelIndex) Subscribers(channel string) []string {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	subs, ok := ci.channels[channel]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	return ids
}

// Contains reports whether the connection is in the channel's set.
func (ci *ChannelIndex) Contains(connectionID, channel string) bool {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	_, ok := ci.channels[channel][connectionID]
	return ok
}

// ChannelCounts returns a snapshot of subscriber counts per channel.
func (ci *ChannelIndex) ChannelCounts() map[string]int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	counts := make(map[string]int, len(ci.channels))
	for name, subs := range ci.channels {
		counts[name] = len(subs)
	}
	return counts
}
