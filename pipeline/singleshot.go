//go:build singleshot

package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
)

// singleshotCoordinator spawns one goroutine per recording instead of
// keeping a worker. A new submission flags the previous job as
// superseded; the engine call itself cannot be interrupted, only its
// result suppressed.
type singleshotCoordinator struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	cur    *singleJob
	closed bool
}

type singleJob struct {
	superseded atomic.Bool
	done       chan struct{}
}

func New(cfg Config) Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &singleshotCoordinator{cfg: cfg, ctx: ctx, cancel: cancel}
}

func (c *singleshotCoordinator) Submit(buf audio.Buffer) {
	if c.cfg.rejectEmpty(buf) {
		return
	}
	req := request{buf: buf, lang: c.cfg.Language, submitted: time.Now()}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.cur
	j := &singleJob{done: make(chan struct{})}
	c.cur = j
	c.mu.Unlock()

	if prev != nil {
		prev.superseded.Store(true)
	}
	go c.run(j, prev, req)
}

func (c *singleshotCoordinator) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		select {
		case <-c.cur.done:
			return 0
		default:
			return 1
		}
	}
	return 0
}

func (c *singleshotCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cur := c.cur
	c.mu.Unlock()

	c.cancel()
	if cur != nil {
		<-cur.done
	}
}

func (c *singleshotCoordinator) run(j, prev *singleJob, req request) {
	defer close(j.done)

	// Join the previous job so at most one engine call is ever in
	// flight.
	if prev != nil {
		<-prev.done
	}
	if j.superseded.Load() || c.ctx.Err() != nil {
		c.cfg.Log.Infof("skipping superseded recording (%.1fs)", req.buf.Duration())
		return
	}

	c.cfg.setTranscribing(true)
	defer c.cfg.setTranscribing(false)

	queueWait := time.Since(req.submitted)
	start := time.Now()
	text, err := c.cfg.Engine.Transcribe(c.ctx, req.buf.Samples, req.lang)
	elapsed := time.Since(start)

	if j.superseded.Load() {
		c.cfg.Log.Infof("discarding stale result, newer recording pending")
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	c.cfg.finish(req, text, err, elapsed, queueWait)
}
