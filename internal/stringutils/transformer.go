// Package stringutils normalizes the free text typed at the front desk:
// service names become URL slugs and comma separated labels become tags.
// Every transformation is recorded in the string_utils audit log.
package stringutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	dErrors "pawtrail/pkg/domain-errors"
	audit "pawtrail/pkg/platform/audit"
	pstrings "pawtrail/pkg/platform/strings"
)

// maxAuditText bounds the input and output copied into audit entries.
const maxAuditText = 120

// Op names a transformation.
type Op string

const (
	OpSlug Op = "slug"
	OpTags Op = "tags"
)

// Emitter records audit entries.
type Emitter interface {
	Emit(ctx context.Context, entry audit.Entry) (uuid.UUID, error)
}

// Transformer applies text transformations and audits them.
type Transformer struct {
	audit  Emitter
	logger *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger used when an audit entry cannot be recorded.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Transformer. A nil emitter disables auditing.
func New(emitter Emitter, opts ...Option) *Transformer {
	t := &Transformer{
		audit:  emitter,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform applies op to value. Tags come back comma separated.
func (t *Transformer) Transform(ctx context.Context, op Op, value string) (string, error) {
	var result string
	switch op {
	case OpSlug:
		result = pstrings.Slugify(value)
	case OpTags:
		result = strings.Join(pstrings.NormalizeTags(strings.Split(value, ",")), ",")
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown transformation %q", op))
	}

	t.record(ctx, audit.Entry{
		Source: audit.SourceStringUtils,
		Action: audit.ActionStringTransformed,
		Target: string(op),
		Before: pstrings.Truncate(value, maxAuditText),
		After:  pstrings.Truncate(result, maxAuditText),
	})
	return result, nil
}

// Slug is Transform with OpSlug.
func (t *Transformer) Slug(ctx context.Context, value string) string {
	s, _ := t.Transform(ctx, OpSlug, value)
	return s
}

// Tags splits value on commas and normalizes each label.
func (t *Transformer) Tags(ctx context.Context, value string) []string {
	s, _ := t.Transform(ctx, OpTags, value)
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (t *Transformer) record(ctx context.Context, entry audit.Entry) {
	if t.audit == nil {
		return
	}
	if _, err := t.audit.Emit(ctx, entry); err != nil {
		t.logger.WarnContext(ctx, "failed to record string audit entry",
			"action", entry.Action,
			"error", err,
		)
	}
}
