package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewWithOptions(out, errOut, ColorNever), out, errOut
}

func TestError(t *testing.T) {
	t.Run("with context", func(t *testing.T) {
		p, out, errOut := newTestPresenter()
		p.Error(errors.New("boom"), "loading bundle")

		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "[ERROR] loading bundle: boom")
	})

	t.Run("without context", func(t *testing.T) {
		p, _, errOut := newTestPresenter()
		p.Error(errors.New("boom"), "")
		assert.Contains(t, errOut.String(), "[ERROR] boom")
	})

	t.Run("nil error is a no-op", func(t *testing.T) {
		p, _, errOut := newTestPresenter()
		p.Error(nil, "context")
		assert.Empty(t, errOut.String())
	})

	t.Run("errors ignore quiet mode", func(t *testing.T) {
		p, _, errOut := newTestPresenter()
		p.SetQuiet(true)
		p.Error(errors.New("boom"), "")
		assert.Contains(t, errOut.String(), "boom")
	})
}

func TestMessages(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Success("installed")
	p.Warning("stale")
	p.Info("plain")

	assert.Contains(t, out.String(), "✓ installed")
	assert.Contains(t, out.String(), "⚠ stale")
	assert.Contains(t, out.String(), "plain")
}

func TestQuietSuppressesMessages(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("installed")
	p.Warning("stale")
	p.Info("plain")
	p.Section("Agents")
	p.Separator()

	assert.Empty(t, out.String())
}

func TestSection(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.Section("Agents")

	assert.Contains(t, out.String(), "Agents\n------\n")
}
