package logctx

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromReturnsDefault(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)

	require.Same(t, def, From(context.Background()))

	var nilLogger *slog.Logger
	require.Same(t, def, From(Into(context.Background(), nilLogger)))
}

func TestIntoFromRoundTrip(t *testing.T) {
	l := newSilent()
	parent := Into(context.Background(), l)
	require.Same(t, l, From(parent))

	child := newSilent()
	require.Same(t, child, From(Into(parent, child)))
	require.Same(t, l, From(parent))
}
