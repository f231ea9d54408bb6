package realtime

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventNewInvoice is the only event type currently broadcast.
const EventNewInvoice = "new_invoice"

// Message is the transient payload broadcast to a branch channel when an
// invoice is persisted. It is never stored; the hub caches only the current
// day's messages.
type Message struct {
	Event         string          `json:"event"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Items         int             `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	File          string          `json:"file"`
	// InvoiceDate is the business-recorded issue time, when the document had one.
	InvoiceDate *time.Time `json:"invoice_date,omitempty"`
	// Timestamp is the ingestion timestamp, set by the hub on publish when empty.
	Timestamp time.Time `json:"timestamp"`
}

// EffectiveTime resolves the message's timestamp: business issue time,
// else ingestion timestamp, else now.
func (m Message) EffectiveTime(now time.Time) time.Time {
	if m.InvoiceDate != nil && !m.InvoiceDate.IsZero() {
		return *m.InvoiceDate
	}
	if !m.Timestamp.IsZero() {
		return m.Timestamp
	}
	return now
}

// Identifier derives the cache-dedup key: explicit id, else
// "{business_number}-{timestamp}", else the resolved timestamp alone.
func (m Message) Identifier(now time.Time) string {
	if m.InvoiceID != "" {
		return m.InvoiceID
	}
	ts := m.EffectiveTime(now).Format(time.RFC3339)
	if m.InvoiceNumber != "" {
		return m.InvoiceNumber + "-" + ts
	}
	return ts
}
