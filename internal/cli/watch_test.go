package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/logging"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startWatcher runs a watcher on insp until the test ends.
func startWatcher(t *testing.T, insp *wizvis.Inspector) *syncBuffer {
	t.Helper()
	w, err := NewDefinitionWatcher(insp, 10*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan struct{})
	go func() {
		w.Run(ctx, out)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return out
}

func TestDefinitionWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeLamp(t)
	insp := wizvis.New()
	require.NoError(t, insp.Open(context.Background(), path))
	out := startWatcher(t, insp)

	renamed := strings.Replace(lampSCXML, `name="lamp"`, `name="lamp-v2"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0644))

	assert.Eventually(t, func() bool {
		return insp.Definition().Name == "lamp-v2"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "reloaded")
	}, time.Second, 10*time.Millisecond)
}

func TestDefinitionWatcher_ReloadsOnRenameReplace(t *testing.T) {
	path := writeLamp(t)
	insp := wizvis.New()
	require.NoError(t, insp.Open(context.Background(), path))
	startWatcher(t, insp)

	tmp := filepath.Join(filepath.Dir(path), ".lamp.scxml.swp")
	renamed := strings.Replace(lampSCXML, `name="lamp"`, `name="lamp-v3"`, 1)
	require.NoError(t, os.WriteFile(tmp, []byte(renamed), 0644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		return insp.Definition().Name == "lamp-v3"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDefinitionWatcher_FailedReloadKeepsChart(t *testing.T) {
	path := writeLamp(t)
	insp := wizvis.New()
	require.NoError(t, insp.Open(context.Background(), path))
	require.NoError(t, insp.AssignDataValue(context.Background(), "power", "true"))
	require.NoError(t, insp.FireEvent(context.Background(), "toggle"))
	out := startWatcher(t, insp)

	require.NoError(t, os.WriteFile(path, []byte(`<scxml initial="ghost"><state id="a"/></scxml>`), 0644))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "failed")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "lamp", insp.Definition().Name)
	assert.Equal(t, []string{"on"}, domain.IDs(insp.ActiveStates()))
}

func TestDefinitionWatcher_KeepsDataOverride(t *testing.T) {
	path, override := writeLampWithMissingData(t)
	insp := wizvis.New()
	require.NoError(t, insp.Open(context.Background(), path, wizvis.WithDataPath(override)))
	out := startWatcher(t, insp)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	renamed := strings.Replace(string(raw), `name="lamp"`, `name="lamp-v2"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0644))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "reloaded")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "lamp-v2", insp.Definition().Name)
	assert.Equal(t, true, insp.Values()["power"])
}

func TestDefinitionWatcher_FollowsOpenedDefinition(t *testing.T) {
	insp := wizvis.New()
	out := startWatcher(t, insp)

	path := writeLamp(t)
	require.NoError(t, insp.Open(context.Background(), path))

	renamed := strings.Replace(lampSCXML, `name="lamp"`, `name="lamp-v2"`, 1)
	assert.Eventually(t, func() bool {
		// Rewrite until the watcher has picked up the new directory.
		_ = os.WriteFile(path, []byte(renamed), 0644)
		return strings.Contains(out.String(), "reloaded")
	}, 2*time.Second, 50*time.Millisecond)
	assert.Equal(t, "lamp-v2", insp.Definition().Name)
}
