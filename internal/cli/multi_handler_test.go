package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func twoLevelHandlers() (*bytes.Buffer, *bytes.Buffer, *MultiLevelHandler) {
	var stderr, file bytes.Buffer
	h := NewMultiLevelHandler(
		slog.NewTextHandler(&stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return &stderr, &file, h
}

func TestMultiLevelHandlerFiltersPerHandler(t *testing.T) {
	stderr, file, h := twoLevelHandlers()
	logger := slog.New(h)

	logger.Debug("line opened")
	logger.Info("audio backend ready")
	logger.Warn("control not supported")

	assert.NotContains(t, stderr.String(), "line opened")
	assert.NotContains(t, stderr.String(), "audio backend ready")
	assert.Contains(t, stderr.String(), "control not supported")

	assert.Contains(t, file.String(), "line opened")
	assert.Contains(t, file.String(), "audio backend ready")
	assert.Contains(t, file.String(), "control not supported")
}

func TestMultiLevelHandlerEnabled(t *testing.T) {
	_, _, h := twoLevelHandlers()
	ctx := context.Background()

	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.True(t, h.Enabled(ctx, level), level.String())
	}
	assert.False(t, NewMultiLevelHandler().Enabled(ctx, slog.LevelError))
}

func TestMultiLevelHandlerAttrsAndGroups(t *testing.T) {
	stderr, file, h := twoLevelHandlers()

	slog.New(h.WithAttrs([]slog.Attr{slog.String("sound", "click")})).
		WithGroup("line").
		Error("failed to open line", "frames", 100)

	for _, out := range []string{stderr.String(), file.String()} {
		assert.Contains(t, out, "sound=click")
		assert.Contains(t, out, "line.frames=100")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiLevelHandlerKeepsWritingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiLevelHandler(failingHandler{}, slog.NewTextHandler(&buf, nil))

	var record slog.Record
	record.Level = slog.LevelError
	record.Message = "line closed"
	err := h.Handle(context.Background(), record)

	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "line closed")
}
