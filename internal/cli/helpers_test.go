package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/wizvis/internal/config"
	"github.com/aretw0/wizvis/internal/logging"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptibleReader(t *testing.T) {
	cancel := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("abc"), cancel)

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	close(cancel)
	_, err = r.Read(buf)
	assert.True(t, isInterrupted(err))
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.NoError(t, handleExecutionError(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Error(t, handleExecutionError(errors.New("boom")))
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("verbose", false)
	assert.Error(t, err)

	logger, err := NewLogger("verbose", true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := DebugHooks(logging.NewWithWriter(&buf, -4))
	ctx := context.Background()

	hooks.OnFire(ctx, &domain.FireEvent{Event: "go", Before: []string{"a"}, After: []string{"b"}})
	hooks.OnAssign(ctx, &domain.AssignEvent{Path: "x", Literal: "1", Err: errors.New("nope")})

	assert.Contains(t, buf.String(), "event=go")
	assert.Contains(t, buf.String(), "path=x")
	assert.Contains(t, buf.String(), "err=nope")
}

func TestNewInspector(t *testing.T) {
	cfg := config.Default()
	cfg.Recent.Backend = "memory"

	reg := prometheus.NewRegistry()
	insp, err := NewInspector(InspectorOptions{Config: cfg, Registry: reg, Debug: true, Logger: logging.NewNop()})
	require.NoError(t, err)
	require.NoError(t, insp.Open(context.Background(), writeLamp(t)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	cfg.Recent.Backend = "carrier-pigeon"
	_, err = NewInspector(InspectorOptions{Config: cfg})
	assert.Error(t, err)
}
