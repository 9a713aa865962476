package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hggrip/internal/eventbus"
)

func mkdirs(t *testing.T, base string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}
}

func TestScanFindsRepositories(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base,
		"alpha/.hg",
		"group/beta/.hg",
		"alpha/sub/nested/.hg",
		"node_modules/ignored/.hg",
		".hidden/ignored/.hg",
		"plain/dir",
	)

	repos, err := Scan(context.Background(), base)
	require.NoError(t, err)

	var names []string
	for _, r := range repos {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"alpha", "nested", "beta"}, names)
	assert.Equal(t, filepath.Join(base, "alpha"), repos[0].Path)
}

func TestScanRootIsRepository(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, ".hg")

	repos, err := Scan(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, base, repos[0].Path)
}

func TestStartScanPublishesEvents(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "one/.hg", "two/.hg")

	bus := eventbus.New()
	defer bus.Close()

	var mu sync.Mutex
	var discovered []string
	done := make(chan int, 1)
	bus.Subscribe(eventbus.EventRepoDiscovered, func(e eventbus.DomainEvent) {
		mu.Lock()
		discovered = append(discovered, e.(eventbus.RepoDiscoveredEvent).Repo.Name)
		mu.Unlock()
	})
	bus.Subscribe(eventbus.EventScanCompleted, func(e eventbus.DomainEvent) {
		done <- e.(eventbus.ScanCompletedEvent).ReposFound
	})

	ds := NewDiscoveryService(bus)
	require.NoError(t, ds.StartScan(context.Background(), []string{base}))
	ds.Wait()

	assert.Equal(t, 2, <-done)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(discovered) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
