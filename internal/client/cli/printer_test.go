package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Info("hello %s", "ann")
	p.Success("done")
	p.Warning("careful")
	p.Error("failed: %d", 3)
	p.Println("raw")

	assert.Equal(t, "hello ann\n[OK] done\n[WARN] careful\n[ERROR] failed: 3\nraw\n", buf.String())
}

func TestPrinter_Colors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Warning("careful")

	assert.Contains(t, buf.String(), "\x1b[33m")
	assert.Contains(t, buf.String(), "careful")
}

func TestResolveColors_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ResolveColors(nil))
}
