// Package realtime fans freshly ingested invoices out to live viewers
// grouped by branch, and keeps a per-branch replay cache of the current
// day's messages.
package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const subscriptionBuffer = 256

// Subscription is one live consumer of a branch channel.
type Subscription struct {
	branch string
	ch     chan Message
	closed bool // guarded by the hub mutex
}

// C is the subscriber's receive channel. It is closed on unsubscribe.
func (s *Subscription) C() <-chan Message { return s.ch }

// Hub is the single shared-mutable-state object between ingestion workers
// and consumer connections. Every registry and cache mutation is serialized
// behind one mutex; replay on subscribe happens under the same lock, so a
// new subscriber's replay strictly precedes any broadcast published after
// its subscription.
type Hub struct {
	mu          sync.Mutex
	subs        map[string][]*Subscription
	cache       map[string][]Message
	sendTimeout time.Duration
	now         func() time.Time // swapped in tests
}

func NewHub(sendTimeout time.Duration) *Hub {
	return &Hub{
		subs:        make(map[string][]*Subscription),
		cache:       make(map[string][]Message),
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Subscribe registers a live consumer on a branch channel and immediately
// replays today's cached messages into it.
func (h *Hub) Subscribe(branch string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	cached := h.cache[branch]
	sub := &Subscription{
		branch: branch,
		ch:     make(chan Message, len(cached)+subscriptionBuffer),
	}
	h.subs[branch] = append(h.subs[branch], sub)

	// The channel is sized to hold the full replay, so this cannot block.
	for _, msg := range cached {
		sub.ch <- msg
	}

	log.Debug().Str("branch", branch).Int("replayed", len(cached)).
		Int("subscribers", len(h.subs[branch])).Msg("realtime subscribe")
	return sub
}

// Unsubscribe removes a consumer. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// Publish caches and delivers a message on a branch channel. Messages whose
// effective day is not today are dropped: the channel only ever represents
// "today so far". A subscriber that cannot accept the message within the
// send timeout is treated as disconnected and pruned.
func (h *Hub) Publish(branch string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	if !sameDay(msg.EffectiveTime(now), now) {
		log.Debug().Str("branch", branch).Str("invoice", msg.InvoiceNumber).
			Msg("realtime message outside current day, dropped")
		return
	}

	h.cache[branch] = compact(append(h.cache[branch], msg), now)

	var dead []*Subscription
	for _, sub := range h.subs[branch] {
		if !h.deliver(sub, msg) {
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		log.Warn().Str("branch", branch).Msg("slow realtime subscriber dropped")
		h.removeLocked(sub)
	}
}

// CacheSize reports the number of cached messages for a branch.
func (h *Hub) CacheSize(branch string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cache[branch])
}

// deliver attempts a send, waiting at most sendTimeout for a slow consumer.
func (h *Hub) deliver(sub *Subscription, msg Message) bool {
	select {
	case sub.ch <- msg:
		return true
	default:
	}
	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()
	select {
	case sub.ch <- msg:
		return true
	case <-timer.C:
		return false
	}
}

func (h *Hub) removeLocked(sub *Subscription) {
	list := h.subs[sub.branch]
	for i, s := range list {
		if s == sub {
			h.subs[sub.branch] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// compact deduplicates the cache by derived identifier — keeping only the
// most recent occurrence — drops entries whose day is no longer today, and
// orders the survivors by effective timestamp for replay.
func compact(msgs []Message, now time.Time) []Message {
	latest := make(map[string]int, len(msgs))
	for i, m := range msgs {
		latest[m.Identifier(now)] = i
	}

	out := msgs[:0]
	for i, m := range msgs {
		if latest[m.Identifier(now)] != i {
			continue
		}
		if !sameDay(m.EffectiveTime(now), now) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveTime(now).Before(out[j].EffectiveTime(now))
	})
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
