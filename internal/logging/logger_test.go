package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, o Options) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core), o)
	t.Cleanup(func() { Replace(zap.NewNop(), Options{}) })
	return logs
}

func TestGetNamesEntriesByCategory(t *testing.T) {
	logs := observe(t, Options{})

	Get(CategoryExif).Info("decoded %d tags", 12)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "exif", entries[0].LoggerName)
	assert.Equal(t, "decoded 12 tags", entries[0].Message)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, Options{Categories: map[string]bool{"web": false}})

	Get(CategoryWeb).Error("should not appear")
	Get(CategoryAPI).Info("should appear")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "api", logs.All()[0].LoggerName)
}

func TestGetCachesLoggers(t *testing.T) {
	observe(t, Options{})
	assert.Same(t, Get(CategoryAudit), Get(CategoryAudit))
}

func TestLogEventFields(t *testing.T) {
	logs := observe(t, Options{})

	LogEvent(Event{
		Type:      EventLLMResponse,
		RequestID: "req-1",
		Success:   true,
		Duration:  1500 * time.Millisecond,
		Fields:    map[string]interface{}{"model": "gemini-2.5-flash"},
	})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "llm_response", ctx["event"])
	assert.Equal(t, "req-1", ctx["req"])
	assert.Equal(t, int64(1500), ctx["dur_ms"])
	assert.Equal(t, "gemini-2.5-flash", ctx["model"])
	assert.NotContains(t, ctx, "error")
}

func TestParseLevel(t *testing.T) {
	lvl, err := parseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = parseLevel("loud")
	assert.Error(t, err)
}

func TestTimerStopWithThreshold(t *testing.T) {
	logs := observe(t, Options{})

	timer := StartTimer(CategoryAPI, "generate")
	timer.start = time.Now().Add(-2 * time.Second)
	timer.StopWithThreshold(time.Second)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestNoopBeforeInitialize(t *testing.T) {
	Replace(zap.NewNop(), Options{})
	assert.NotPanics(t, func() {
		Get(CategoryBoot).Info("nothing")
		LogEvent(Event{Type: EventExtract})
	})
}
