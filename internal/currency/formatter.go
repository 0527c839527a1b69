// Package currency formats prices for invoices and the booking screen.
// Each formatted amount, and each failure, is recorded in the
// currency_formatter audit log.
package currency

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	dErrors "pawtrail/pkg/domain-errors"
	audit "pawtrail/pkg/platform/audit"
)

// Emitter records audit entries.
type Emitter interface {
	Emit(ctx context.Context, entry audit.Entry) (uuid.UUID, error)
}

// Style selects how the currency is shown.
type Style int

const (
	// StyleSymbol renders "$ 12.50".
	StyleSymbol Style = iota
	// StyleISO renders "USD 12.50".
	StyleISO
)

// Formatter renders amounts for one locale.
type Formatter struct {
	locale  language.Tag
	printer *message.Printer
	style   Style
	audit   Emitter
	logger  *slog.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithStyle sets the currency display style.
func WithStyle(style Style) Option {
	return func(f *Formatter) {
		f.style = style
	}
}

// WithLogger sets the logger used when an audit entry cannot be recorded.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Formatter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a formatter for a BCP 47 locale such as "en-US" or "de-DE".
func New(locale string, emitter Emitter, opts ...Option) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("unsupported locale %q", locale))
	}
	f := &Formatter{
		locale:  tag,
		printer: message.NewPrinter(tag),
		audit:   emitter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag {
	return f.locale
}

// Format renders amount in the ISO 4217 currency code.
func (f *Formatter) Format(ctx context.Context, amount float64, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	rawAmount := strconv.FormatFloat(amount, 'f', -1, 64)

	unit, err := currency.ParseISO(code)
	if err != nil {
		f.record(ctx, audit.Entry{
			Source: audit.SourceCurrencyFormatter,
			Action: audit.ActionCurrencyFormatFailed,
			Target: code,
			Before: rawAmount,
			Detail: err.Error(),
		})
		return "", dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("unknown currency code %q", code))
	}

	var formatted string
	switch f.style {
	case StyleISO:
		formatted = f.printer.Sprint(currency.ISO(unit.Amount(amount)))
	default:
		formatted = f.printer.Sprint(currency.Symbol(unit.Amount(amount)))
	}

	f.record(ctx, audit.Entry{
		Source: audit.SourceCurrencyFormatter,
		Action: audit.ActionCurrencyFormatted,
		Target: unit.String(),
		Before: rawAmount,
		After:  formatted,
		Detail: f.locale.String(),
	})
	return formatted, nil
}

func (f *Formatter) record(ctx context.Context, entry audit.Entry) {
	if f.audit == nil {
		return
	}
	if _, err := f.audit.Emit(ctx, entry); err != nil {
		f.logger.WarnContext(ctx, "failed to record currency audit entry",
			"action", entry.Action,
			"error", err,
		)
	}
}
