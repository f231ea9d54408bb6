package realtime

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 27, 15, 0, 0, 0, time.Local)
}

func newTestHub() *Hub {
	h := NewHub(50 * time.Millisecond)
	h.now = fixedNow
	return h
}

func msgAt(number string, ts time.Time) Message {
	return Message{
		Event:         EventNewInvoice,
		InvoiceNumber: number,
		Total:         decimal.NewFromInt(100),
		Timestamp:     ts,
	}
}

func TestHubReplayThenLive(t *testing.T) {
	h := newTestHub()

	h.Publish("FLO", msgAt("A-1", fixedNow().Add(-2*time.Hour)))
	h.Publish("FLO", msgAt("A-2", fixedNow().Add(-1*time.Hour)))

	sub := h.Subscribe("FLO")
	defer h.Unsubscribe(sub)

	// Replay arrives first, in effective-time order.
	first := <-sub.C()
	second := <-sub.C()
	assert.Equal(t, "A-1", first.InvoiceNumber)
	assert.Equal(t, "A-2", second.InvoiceNumber)

	h.Publish("FLO", msgAt("A-3", fixedNow()))
	third := <-sub.C()
	assert.Equal(t, "A-3", third.InvoiceNumber)
}

func TestHubBranchIsolation(t *testing.T) {
	h := newTestHub()

	flo := h.Subscribe("FLO")
	defer h.Unsubscribe(flo)
	nor := h.Subscribe("NOR")
	defer h.Unsubscribe(nor)

	h.Publish("FLO", msgAt("F-1", fixedNow()))

	assert.Equal(t, "F-1", (<-flo.C()).InvoiceNumber)
	select {
	case m := <-nor.C():
		t.Fatalf("NOR subscriber received %s", m.InvoiceNumber)
	default:
	}
}

func TestHubCacheDedupKeepsMostRecent(t *testing.T) {
	h := newTestHub()

	m := msgAt("A-1", fixedNow().Add(-time.Hour))
	m.InvoiceID = "id-1"
	h.Publish("FLO", m)

	// Same identifier republished (re-ingest after a correction) replaces
	// rather than duplicates the cached entry.
	m2 := m
	m2.Total = decimal.NewFromInt(250)
	h.Publish("FLO", m2)

	assert.Equal(t, 1, h.CacheSize("FLO"))

	sub := h.Subscribe("FLO")
	defer h.Unsubscribe(sub)
	got := <-sub.C()
	assert.True(t, got.Total.Equal(decimal.NewFromInt(250)))
}

func TestHubDropsMessagesFromOtherDays(t *testing.T) {
	h := newTestHub()

	h.Publish("FLO", msgAt("OLD-1", fixedNow().AddDate(0, 0, -1)))
	assert.Equal(t, 0, h.CacheSize("FLO"))

	// An old invoice date wins over a current timestamp.
	old := fixedNow().AddDate(0, 0, -2)
	m := msgAt("OLD-2", fixedNow())
	m.InvoiceDate = &old
	h.Publish("FLO", m)
	assert.Equal(t, 0, h.CacheSize("FLO"))
}

func TestHubPublishSetsTimestamp(t *testing.T) {
	h := newTestHub()
	h.Publish("FLO", Message{Event: EventNewInvoice, InvoiceNumber: "A-1"})

	sub := h.Subscribe("FLO")
	defer h.Unsubscribe(sub)
	got := <-sub.C()
	assert.Equal(t, fixedNow(), got.Timestamp)
}

func TestHubPrunesSlowSubscriber(t *testing.T) {
	h := newTestHub()

	sub := h.Subscribe("FLO")
	// Never drained: fill the buffer past capacity so delivery times out.
	for i := 0; i < subscriptionBuffer+1; i++ {
		h.Publish("FLO", msgAt("A-1", fixedNow())) // same id, cache stays small
	}

	// The subscriber was removed and its channel closed.
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.subs["FLO"]) == 0
	}, time.Second, 10*time.Millisecond)

	h.Unsubscribe(sub) // idempotent after the prune
}

func TestHubUnsubscribeIdempotent(t *testing.T) {
	h := newTestHub()
	sub := h.Subscribe("FLO")
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	_, open := <-sub.C()
	assert.False(t, open)
}
