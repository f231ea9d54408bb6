package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/guard"
	"github.com/Pipe0105/visor-realtime/internal/model"
	"github.com/Pipe0105/visor-realtime/internal/parser"
	"github.com/Pipe0105/visor-realtime/internal/realtime"
	"github.com/Pipe0105/visor-realtime/internal/repository"
	"github.com/Pipe0105/visor-realtime/internal/rollover"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Outcome classifies what ProcessFile did with a file.
type Outcome string

const (
	// OutcomePersisted — the invoice was stored and broadcast.
	OutcomePersisted Outcome = "persisted"
	// OutcomeClaimed — another worker owns the file or number right now.
	OutcomeClaimed Outcome = "claimed"
	// OutcomeVanished — the file disappeared before it could be read.
	OutcomeVanished Outcome = "vanished"
	// OutcomeParseFailed — the document is structurally unreadable.
	OutcomeParseFailed Outcome = "parse_failed"
	// OutcomeDuplicate — the file or its business number is already stored.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeFailed — an I/O or store error; the file stays eligible for retry.
	OutcomeFailed Outcome = "failed"
)

// Publisher is the slice of the realtime hub the pipeline needs.
type Publisher interface {
	Publish(branch string, msg realtime.Message)
}

// Pipeline turns one file on disk into one stored invoice and one realtime
// broadcast, exactly once.
type Pipeline struct {
	invoices     repository.InvoiceRepository
	rollover     rollover.Runner
	guard        *guard.Guard
	publisher    Publisher
	branchCode   string
	readAttempts int
	readDelay    time.Duration
}

func NewPipeline(
	invoices repository.InvoiceRepository,
	ro rollover.Runner,
	g *guard.Guard,
	publisher Publisher,
	branchCode string,
	readAttempts int,
	readDelay time.Duration,
) *Pipeline {
	return &Pipeline{
		invoices:     invoices,
		rollover:     ro,
		guard:        g,
		publisher:    publisher,
		branchCode:   branchCode,
		readAttempts: readAttempts,
		readDelay:    readDelay,
	}
}

// ProcessFile ingests one invoice file end to end: claim the filename,
// read, parse, claim the business number, roll the day over if needed,
// then persist and broadcast. All claims are released on every path; the
// store's uniqueness checks inside the transaction are the real dedup.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	filename := filepath.Base(path)

	if !p.guard.Files.TryClaim(filename) {
		return OutcomeClaimed, nil
	}
	defer p.guard.Files.Release(filename)

	content, err := ReadFileRetry(path, p.readAttempts, p.readDelay)
	if errors.Is(err, ErrVanished) {
		log.Debug().Str("file", filename).Msg("file vanished before read")
		return OutcomeVanished, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	doc, err := parser.Parse(content)
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			log.Warn().Err(err).Str("file", filename).Msg("unparseable invoice skipped")
			return OutcomeParseFailed, nil
		}
		return OutcomeFailed, err
	}

	if !p.guard.Numbers.TryClaim(doc.Header.Number) {
		return OutcomeClaimed, nil
	}
	defer p.guard.Numbers.Release(doc.Header.Number)

	// A stale table would mis-assign this invoice to yesterday's live set.
	// Rollover failure is logged but does not block ingestion.
	if _, err := p.rollover.EnsureRollover(ctx); err != nil {
		log.Error().Err(err).Msg("rollover before ingest failed")
	}

	inv := buildInvoice(doc, filename)

	outcome := OutcomePersisted
	err = runTx(ctx, p.invoices.DB(), func(tx *gorm.DB) error {
		exists, err := p.invoices.ExistsBySourceFile(ctx, tx, filename)
		if err != nil {
			return err
		}
		if exists {
			outcome = OutcomeDuplicate
			return nil
		}

		prior, err := p.invoices.FindLiveByNumber(ctx, tx, doc.Header.Number)
		if err != nil {
			return err
		}
		if prior != nil {
			log.Warn().Str("number", doc.Header.Number).
				Str("file", filename).Str("existing_file", prior.SourceFile).
				Msg("duplicate invoice number, file skipped")
			outcome = OutcomeDuplicate
			return nil
		}

		return p.invoices.Create(ctx, tx, inv)
	})
	if err != nil {
		return OutcomeFailed, err
	}
	if outcome == OutcomeDuplicate {
		return outcome, nil
	}

	// ID comes back from the insert's RETURNING clause; without a store
	// (unit tests) it stays zero and the message falls back to the
	// number+timestamp identifier.
	var invoiceID string
	if inv.ID != uuid.Nil {
		invoiceID = inv.ID.String()
	}
	p.publisher.Publish(p.branchCode, realtime.Message{
		Event:         realtime.EventNewInvoice,
		InvoiceID:     invoiceID,
		InvoiceNumber: inv.Number,
		Items:         len(inv.Items),
		Total:         inv.Total,
		Subtotal:      inv.Subtotal,
		File:          filename,
		InvoiceDate:   inv.IssuedAt,
	})

	log.Info().Str("file", filename).Str("number", inv.Number).
		Str("total", inv.Total.String()).Int("items", len(inv.Items)).
		Msg("invoice ingested")
	return OutcomePersisted, nil
}

// buildInvoice maps a parsed document onto the storage model.
func buildInvoice(doc *parser.Document, filename string) *model.Invoice {
	inv := &model.Invoice{
		Number:   doc.Header.Number,
		IssuedAt: parser.ResolveIssuedAt(doc.Header.Date),
		Subtotal: doc.Totals.Subtotal,
		VAT:      doc.Totals.Tax,
		Discount: doc.Totals.Discount,
		Total:    doc.Totals.Total,
		// Files carry no branch marker; everything lands on the default branch.
		BranchID:   nil,
		SourceFile: filename,
	}
	for _, it := range doc.Items {
		inv.Items = append(inv.Items, model.InvoiceItem{
			LineNumber:  it.LineNumber,
			ProductCode: it.ProductCode,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
			TaxRate:     it.TaxRate,
			TaxAmount:   it.TaxAmount,
		})
	}
	return inv
}

// runTx executes fn inside a GORM transaction when db is available, or
// calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
