package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/debrepo/internal/adapters/logger"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Info("index updated")

	out := buf.String()
	assert.Contains(t, out, "index updated")
	assert.Contains(t, out, "INFO")
}

func TestLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Warn("orphan cleanup failed")

	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "orphan cleanup failed")
}

func TestLogger_ErrorCarriesMetadata(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	err := zerr.With(zerr.Wrap(domain.ErrSigningFailed, "failed to sign manifest"), "codename", "artipie")
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "failed to sign manifest")
	assert.Contains(t, out, "codename=artipie")
}

func TestLogger_ErrorNil(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Error(nil)

	assert.Empty(t, buf.String())
}

func TestLogger_SetOutput(t *testing.T) {
	var first, second bytes.Buffer
	lg := logger.NewWithWriter(&first)

	lg.Info("one")
	lg.SetOutput(&second)
	lg.Info("two")

	assert.True(t, strings.Contains(first.String(), "one"))
	assert.False(t, strings.Contains(first.String(), "two"))
	assert.Contains(t, second.String(), "two")
}
