package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"hggrip/internal/domain"
	"hggrip/internal/eventbus"
	"hggrip/internal/logger"
)

// maxDepth limits how far below a scan root repositories are looked for
const maxDepth = 5

// skipDirs are never descended into
var skipDirs = []string{
	"node_modules", "vendor", "dist", "build", "target",
	"__pycache__", "venv", "env",
}

// DiscoveryService finds Mercurial repositories in the filesystem
type DiscoveryService interface {
	StartScan(ctx context.Context, roots []string) error
	StopScan()
	Wait()
}

type discoveryService struct {
	bus        eventbus.EventBus
	mu         sync.Mutex
	isScanning bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewDiscoveryService creates a discovery service publishing on bus
func NewDiscoveryService(bus eventbus.EventBus) DiscoveryService {
	return &discoveryService{bus: bus}
}

// StartScan scans roots in the background, publishing a RepoDiscoveredEvent
// per repository and a ScanCompletedEvent at the end.
func (ds *discoveryService) StartScan(ctx context.Context, roots []string) error {
	ds.mu.Lock()
	if ds.isScanning {
		ds.mu.Unlock()
		return fmt.Errorf("scan already in progress")
	}
	ds.isScanning = true

	scanCtx, cancel := context.WithCancel(ctx)
	ds.cancelFunc = cancel
	ds.mu.Unlock()

	ds.bus.Publish(eventbus.ScanStartedEvent{Paths: roots})

	ds.wg.Add(1)
	go func() {
		defer ds.wg.Done()
		found := 0
		defer func() {
			ds.mu.Lock()
			ds.isScanning = false
			ds.cancelFunc = nil
			ds.mu.Unlock()
			cancel()

			ds.bus.Publish(eventbus.ScanCompletedEvent{ReposFound: found})
		}()

		for _, root := range roots {
			if scanCtx.Err() != nil {
				return
			}
			found += ds.scanDirectory(scanCtx, root, func(r domain.Repository) {
				ds.bus.Publish(eventbus.RepoDiscoveredEvent{Repo: r})
			})
		}
	}()

	return nil
}

// StopScan cancels a running scan and waits for it to finish
func (ds *discoveryService) StopScan() {
	ds.mu.Lock()
	if ds.cancelFunc != nil {
		ds.cancelFunc()
	}
	ds.mu.Unlock()

	ds.wg.Wait()
}

// Wait blocks until the current scan is done
func (ds *discoveryService) Wait() {
	ds.wg.Wait()
}

// Scan walks root synchronously and returns the repositories found, sorted by path
func Scan(ctx context.Context, root string) ([]domain.Repository, error) {
	var repos []domain.Repository
	ds := &discoveryService{}
	err := ds.walk(ctx, root, func(r domain.Repository) { repos = append(repos, r) })
	slices.SortFunc(repos, func(a, b domain.Repository) int { return strings.Compare(a.Path, b.Path) })
	return repos, err
}

func (ds *discoveryService) scanDirectory(ctx context.Context, root string, found func(domain.Repository)) int {
	n := 0
	err := ds.walk(ctx, root, func(r domain.Repository) {
		n++
		found(r)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Error scanning directory %s: %v", root, err)
		ds.bus.Publish(eventbus.ErrorEvent{
			Message: fmt.Sprintf("Failed to scan %s", root),
			Err:     err,
		})
	}
	return n
}

// walk reports every directory below root that holds a .hg directory.
// Nested repositories are reported too.
func (ds *discoveryService) walk(ctx context.Context, root string, found func(domain.Repository)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Debugf("Error walking path %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if strings.Count(relPath, string(filepath.Separator)) > maxDepth {
			return filepath.SkipDir
		}

		name := d.Name()
		if name == ".hg" {
			repoPath := filepath.Dir(path)
			found(domain.Repository{Path: repoPath, Name: filepath.Base(repoPath)})
			return filepath.SkipDir
		}
		if path != root && (strings.HasPrefix(name, ".") || slices.Contains(skipDirs, name)) {
			return filepath.SkipDir
		}
		return nil
	})
}
