package parley

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMapTranslatorFallbacks(t *testing.T) {
	tr := NewMapTranslator(map[string]map[string]string{
		"en": {"greet": "Hello, {name}!"},
		"de": {"greet": "Hallo, {name}!"},
	})

	assert.Equal(t, "Hallo, Ada!", tr.Translate("de", "greet", map[string]string{"name": "Ada"}))
	// Unknown locale falls back to the default locale.
	assert.Equal(t, "Hello, Ada!", tr.Translate("nl", "greet", map[string]string{"name": "Ada"}))
	// Unknown key falls back to the key itself.
	assert.Equal(t, "no.such.key", tr.Translate("en", "no.such.key", nil))
}

func TestMapTranslatorOverridesEngineDefaults(t *testing.T) {
	tr := NewMapTranslator(map[string]map[string]string{
		DefaultLocale: {KeyInvalidInput: "Nope."},
	})

	assert.Equal(t, "Nope.", tr.Translate(DefaultLocale, KeyInvalidInput, nil))
	// Untouched engine defaults survive.
	assert.Equal(t, "This menu was closed due to inactivity.",
		tr.Translate(DefaultLocale, KeyInactivityNotice, nil))
}

func TestBusyTracker(t *testing.T) {
	tracker := NewMemoryBusyTracker()

	assert.False(t, tracker.Busy("c1"))
	tracker.MarkBusy("c1")
	assert.True(t, tracker.Busy("c1"))
	assert.False(t, tracker.Busy("c2"))
	tracker.ClearBusy("c1")
	assert.False(t, tracker.Busy("c1"))
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Info("series %s: completed", "s1")
	logger.Error("step %s: handler failed", "st1")

	out := buf.String()
	assert.Contains(t, out, "series s1: completed")
	assert.Contains(t, out, `"level":"error"`)
}
