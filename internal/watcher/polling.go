package watcher

import (
	"context"
	"os"
	"time"
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
	exists  bool
}

// poller detects changes by comparing stat snapshots of the targets.
type poller struct {
	interval time.Duration
	targets  func() []string
	state    map[string]fileSnapshot
}

func newPoller(interval time.Duration, targets func() []string) *poller {
	return &poller{
		interval: interval,
		targets:  targets,
		state:    make(map[string]fileSnapshot),
	}
}

// run polls until ctx is done, passing each detected change to emit.
func (p *poller) run(ctx context.Context, stop <-chan struct{}, emit func(FileEvent)) {
	p.detect(func(FileEvent) {}) // baseline

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.detect(emit)
		}
	}
}

// detect stats every target and emits one event per difference from the
// previous snapshot. Paths no longer targeted are forgotten.
func (p *poller) detect(emit func(FileEvent)) {
	now := time.Now()
	seen := make(map[string]bool)
	for _, path := range p.targets() {
		seen[path] = true
		cur := snapshot(path)
		prev, known := p.state[path]
		p.state[path] = cur
		if !known {
			continue
		}

		switch {
		case !prev.exists && cur.exists:
			emit(FileEvent{Path: path, Operation: OpCreate, Timestamp: now})
		case prev.exists && !cur.exists:
			emit(FileEvent{Path: path, Operation: OpDelete, Timestamp: now})
		case cur.exists && (!cur.modTime.Equal(prev.modTime) || cur.size != prev.size):
			emit(FileEvent{Path: path, Operation: OpModify, Timestamp: now})
		}
	}
	for path := range p.state {
		if !seen[path] {
			delete(p.state, path)
		}
	}
}

func snapshot(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fileSnapshot{}
	}
	return fileSnapshot{modTime: info.ModTime(), size: info.Size(), exists: true}
}
