package rewriting

import (
	"context"
	"sync"
)

// Sequencer serializes rewrites per key so that only the latest request for a field counts.
// Starting a new rewrite cancels the one in flight for the same key, and a superseded call
// reports its result as stale.
type Sequencer struct {
	gateway Gateway

	mu       sync.Mutex
	next     uint64
	inflight map[string]inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewSequencer wraps gateway.
func NewSequencer(gateway Gateway) *Sequencer {
	return &Sequencer{gateway: gateway, inflight: make(map[string]inflight)}
}

// Rewrite runs the gateway for key. The boolean is false when a newer call for the same key
// started before this one finished; the caller must then discard the text.
func (s *Sequencer) Rewrite(ctx context.Context, key, text, field string) (string, bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.next++
	seq := s.next
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.inflight[key] = inflight{seq: seq, cancel: cancel}
	s.mu.Unlock()

	out := s.gateway.Rewrite(ctx, text, field)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.inflight[key]; !ok || cur.seq != seq {
		return text, false
	}
	delete(s.inflight, key)
	return out, true
}

// Pending reports how many keys have a rewrite in flight.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
