package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithModuleTagsRecords(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	WithModule("grpc").Warn("health check failed")
	assert.Contains(t, buf.String(), "module=grpc")
	assert.Contains(t, buf.String(), `msg="health check failed"`)
}

func TestSetupLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		Setup(in)
		h := slog.Default().Handler()
		assert.True(t, h.Enabled(context.Background(), want), in)
		if want > slog.LevelDebug {
			assert.False(t, h.Enabled(context.Background(), want-1), in)
		}
	}
}
