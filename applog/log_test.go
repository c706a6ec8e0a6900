package applog

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopDiscardsEverything(t *testing.T) {
	l := Noop()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("y", "k", "v")
		l.Warn("z")
		l.Error("w", "a", 1, "b")
	})
}

func TestFormatIncludesKeyValuePairs(t *testing.T) {
	out := format("INFO", "did a thing", []any{"id", 7, "ok", true})
	assert.True(t, strings.HasPrefix(out, "[INFO] did a thing"))
	assert.Contains(t, out, "id=7")
	assert.Contains(t, out, "ok=true")
}

func TestFormatToleratesOddKVCount(t *testing.T) {
	out := format("WARN", "partial", []any{"dangling"})
	assert.Equal(t, "[WARN] partial", out)
}

func TestStdRespectsMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	std := NewStd(LevelWarn)
	std.logger = log.New(&buf, "", 0)
	require := assert.New(t)
	require.NotPanics(func() {
		std.Debug("should be filtered")
		std.Info("also filtered")
		std.Warn("this one emits")
		std.Error("and this one")
	})
	out := buf.String()
	require.NotContains(out, "should be filtered")
	require.NotContains(out, "also filtered")
	require.Contains(out, "[WARN] this one emits")
	require.Contains(out, "[ERROR] and this one")
}
