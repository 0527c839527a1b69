package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom_Empty(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
}

func TestWithTx_NilKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
}

func TestWithTx_RoundTrip(t *testing.T) {
	sqlTx := &sql.Tx{}
	got, ok := From(WithTx(context.Background(), sqlTx))
	assert.True(t, ok)
	assert.Same(t, sqlTx, got)
}

func TestExecerFrom(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, ExecerFrom(context.Background(), db))

	sqlTx := &sql.Tx{}
	assert.Same(t, sqlTx, ExecerFrom(WithTx(context.Background(), sqlTx), db))
}
