// Package ingest implements the invoice file pipeline: directory scanning,
// redis-backed work distribution, retrying reads, parsing and persistence.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pipe0105/visor-realtime/internal/repository"

	"github.com/rs/zerolog/log"
)

// Scanner lists a directory for invoice files that look ingestible and are
// not already registered in the store.
type Scanner struct {
	dir      string
	prefixes []string
	ext      string
	invoices repository.InvoiceRepository
}

func NewScanner(dir string, prefixes []string, ext string, invoices repository.InvoiceRepository) *Scanner {
	return &Scanner{dir: dir, prefixes: prefixes, ext: strings.ToLower(ext), invoices: invoices}
}

// ValidFileName reports whether name matches the printer's output pattern:
// the configured extension (case-insensitive), exactly one dot, and a stem
// starting with one of the configured prefixes. An all-digit stem matches a
// prefix with its letters stripped, covering printers configured without the
// terminal letter ("010012W" also admits "010012...").
func (s *Scanner) ValidFileName(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, s.ext) {
		return false
	}
	stem := name[:len(name)-len(s.ext)]
	// Double extensions like "X.xml.xml" come from copy tools, never the printer.
	if strings.Contains(stem, ".") {
		return false
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(stem, p) {
			return true
		}
		if d := digitsOf(p); d != "" && digitsOnly(stem) && strings.HasPrefix(stem, d) {
			return true
		}
	}
	return false
}

// Scan lists the directory and returns the full paths of files worth
// ingesting, plus how many were skipped as already registered.
func (s *Scanner) Scan(ctx context.Context) (scheduled []string, skipped int, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, 0, err
	}

	known, err := s.invoices.SourceFiles(ctx)
	if err != nil {
		return nil, 0, err
	}

	for _, e := range entries {
		if e.IsDir() || !s.ValidFileName(e.Name()) {
			continue
		}
		if _, ok := known[e.Name()]; ok {
			skipped++
			continue
		}
		scheduled = append(scheduled, filepath.Join(s.dir, e.Name()))
	}

	log.Debug().Int("scheduled", len(scheduled)).Int("skipped", skipped).
		Str("dir", s.dir).Msg("directory scan")
	return scheduled, skipped, nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
