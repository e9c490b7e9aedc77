// Package metrics periodically snapshots process and game-loop health
// and logs it from Poller.Run (spec §4.J); no command in this module
// starts a Poller. It wires two dependencies
// the teacher's go.mod declared but never imported: pbnjay/memory
// (system memory) and prometheus/procfs (this process's own RSS).
package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pbnjay/memory"
	"github.com/prometheus/procfs"

	"github.com/decred/slog"
)

// QueueDepther is the subset of gameloop.Loop this package depends on,
// kept narrow so tests can supply a fake without building a real loop.
type QueueDepther interface {
	QueueDepth() int
	LastCascadeDepth() int
}

// Snapshot is one point-in-time health reading.
type Snapshot struct {
	Timestamp        time.Time
	ProcessRSSBytes  uint64
	SystemFreeBytes  uint64
	SystemTotalBytes uint64
	QueueDepth       int
	CascadeDepth     int
}

func (s Snapshot) String() string {
	return fmt.Sprintf("rss=%dMB free=%dMB/%dMB queue=%d cascade=%d",
		s.ProcessRSSBytes/(1<<20), s.SystemFreeBytes/(1<<20), s.SystemTotalBytes/(1<<20),
		s.QueueDepth, s.CascadeDepth)
}

// Poller periodically takes a Snapshot and logs it. It has no
// Start/Stop pair: Run blocks on its ticker until ctx is cancelled.
type Poller struct {
	loop     QueueDepther
	log      slog.Logger
	interval time.Duration
	proc     procfs.Proc
	hasProc  bool
}

// NewPoller builds a Poller. procfs is opened once at construction
// (best-effort: on platforms without /proc, ProcessRSSBytes reads 0
// rather than failing the whole poller).
func NewPoller(loop QueueDepther, log slog.Logger, interval time.Duration) *Poller {
	p := &Poller{loop: loop, log: log, interval: interval}
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		log.Warnf("metrics: procfs unavailable: %v", err)
		return p
	}
	proc, err := fs.Proc(os.Getpid())
	if err != nil {
		log.Warnf("metrics: procfs self lookup failed: %v", err)
		return p
	}
	p.proc = proc
	p.hasProc = true
	return p
}

// Snapshot takes one reading immediately.
func (p *Poller) Snapshot() Snapshot {
	s := Snapshot{
		Timestamp:        time.Now(),
		SystemFreeBytes:  memory.FreeMemory(),
		SystemTotalBytes: memory.TotalMemory(),
		QueueDepth:       p.loop.QueueDepth(),
		CascadeDepth:     p.loop.LastCascadeDepth(),
	}
	if p.hasProc {
		if stat, err := p.proc.Stat(); err == nil {
			s.ProcessRSSBytes = uint64(stat.ResidentMemory())
		} else {
			p.log.Warnf("metrics: reading process stat: %v", err)
		}
	}
	return s
}

// Run logs a Snapshot every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.log.Infof("metrics: %s", p.Snapshot())
		}
	}
}
