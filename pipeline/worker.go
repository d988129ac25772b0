//go:build !singleshot

package pipeline

import (
	"context"
	"sync"
	"time"

	"murmur/audio"
)

const queueCap = 8

// workerCoordinator runs one long-lived worker goroutine behind a
// buffered channel. The hotkey path only ever touches the channel.
type workerCoordinator struct {
	cfg    Config
	jobs   chan request
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New starts the coordinator's worker.
func New(cfg Config) Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &workerCoordinator{
		cfg:    cfg,
		jobs:   make(chan request, queueCap),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

// Submit hands a finalized buffer to the worker without blocking. If
// the queue is somehow full the oldest entry is dropped; it would
// have been drained as superseded anyway.
func (c *workerCoordinator) Submit(buf audio.Buffer) {
	if c.cfg.rejectEmpty(buf) {
		return
	}
	req := request{buf: buf, lang: c.cfg.Language, submitted: time.Now()}
	for {
		select {
		case c.jobs <- req:
			c.cfg.setQueueDepth(len(c.jobs))
			return
		default:
		}
		select {
		case <-c.jobs:
			c.cfg.Log.Warnf("queue full, dropping oldest recording")
		default:
		}
	}
}

func (c *workerCoordinator) Depth() int { return len(c.jobs) }

// Close stops the worker. An in-flight engine call is asked to stop
// via context and waited for.
func (c *workerCoordinator) Close() {
	c.once.Do(func() {
		c.cancel()
		<-c.done
	})
}

func (c *workerCoordinator) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case req := <-c.jobs:
			if c.ctx.Err() != nil {
				return
			}
			// Drain to the newest buffer. Everything older was
			// superseded by a later recording.
			for drained := false; !drained; {
				select {
				case newer := <-c.jobs:
					c.cfg.Log.Infof("skipping superseded recording (%.1fs)", req.buf.Duration())
					req = newer
				default:
					drained = true
				}
			}
			c.cfg.setQueueDepth(len(c.jobs))
			c.process(req)
		}
	}
}

func (c *workerCoordinator) process(req request) {
	c.cfg.setTranscribing(true)
	defer c.cfg.setTranscribing(false)

	queueWait := time.Since(req.submitted)
	start := time.Now()
	text, err := c.cfg.Engine.Transcribe(c.ctx, req.buf.Samples, req.lang)
	elapsed := time.Since(start)

	// A buffer that arrived while the engine was running supersedes
	// this result.
	if len(c.jobs) > 0 {
		c.cfg.Log.Infof("discarding stale result, newer recording pending")
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	c.cfg.finish(req, text, err, elapsed, queueWait)
}
