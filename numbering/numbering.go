// Package numbering provides the strategies builders use to default
// document numbers and due/expiration dates.
package numbering

import (
	"fmt"
	"sync"
	"time"

	"github.com/xraph/invoicer/record"
)

// Generator assigns document numbers.
type Generator interface {
	Next(kind record.Kind, date time.Time) string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(kind record.Kind, date time.Time) string

// Next implements Generator.
func (f GeneratorFunc) Next(kind record.Kind, date time.Time) string { return f(kind, date) }

// DefaultPrefixes are the number prefixes used by NewSequential.
var DefaultPrefixes = map[record.Kind]string{
	record.KindQuote:      "Q",
	record.KindInvoice:    "INV",
	record.KindCreditNote: "CN",
	record.KindReceipt:    "RCPT",
}

// Sequential numbers documents PREFIX-YEAR-NNNN with one counter per kind and year.
type Sequential struct {
	mu       sync.Mutex
	prefixes map[record.Kind]string
	counters map[string]int
}

// NewSequential creates a generator. Missing prefixes fall back to DefaultPrefixes.
func NewSequential(prefixes map[record.Kind]string) *Sequential {
	p := make(map[record.Kind]string, len(DefaultPrefixes))
	for k, v := range DefaultPrefixes {
		p[k] = v
	}
	for k, v := range prefixes {
		if v != "" {
			p[k] = v
		}
	}
	return &Sequential{prefixes: p, counters: make(map[string]int)}
}

// Next implements Generator.
func (s *Sequential) Next(kind record.Kind, date time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix, ok := s.prefixes[kind]
	if !ok {
		prefix = string(kind)
	}
	key := fmt.Sprintf("%s/%d", kind, date.Year())
	s.counters[key]++
	return fmt.Sprintf("%s-%d-%04d", prefix, date.Year(), s.counters[key])
}

// Seed sets the last used sequence for kind in year, e.g. after a restart.
func (s *Sequential) Seed(kind record.Kind, year, last int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[fmt.Sprintf("%s/%d", kind, year)] = last
}

// Terms derives due and expiration dates from issue dates.
type Terms interface {
	Due(kind record.Kind, issued time.Time) time.Time
}

// TermsFunc adapts a function to Terms.
type TermsFunc func(kind record.Kind, issued time.Time) time.Time

// Due implements Terms.
func (f TermsFunc) Due(kind record.Kind, issued time.Time) time.Time { return f(kind, issued) }

// NetDays returns terms that add days to every issue date.
func NetDays(days int) Terms {
	return TermsFunc(func(_ record.Kind, issued time.Time) time.Time {
		if issued.IsZero() {
			return issued
		}
		return issued.AddDate(0, 0, days)
	})
}

// PerKind dispatches to per-kind terms, falling back to fallback.
func PerKind(terms map[record.Kind]Terms, fallback Terms) Terms {
	return TermsFunc(func(kind record.Kind, issued time.Time) time.Time {
		if t, ok := terms[kind]; ok {
			return t.Due(kind, issued)
		}
		return fallback.Due(kind, issued)
	})
}

// DefaultTerms is net 30 for every kind.
func DefaultTerms() Terms { return NetDays(30) }
