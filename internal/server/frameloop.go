package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned by FrameLoop.Start on a second call.
var ErrAlreadyStarted = errors.New("server: frame loop already started")

// FrameLoop is a Service calling a frame function once per interval. Frames
// run sequentially on the goroutine that called Start.
//
// Invariant: frame is never called after Stop returns.
type FrameLoop struct {
	interval time.Duration
	frame    func(elapsed time.Duration)
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFrameLoop returns a loop that calls frame every interval with the time
// elapsed since the previous frame.
//
// Precondition: interval must be > 0; frame and logger must be non-nil.
func NewFrameLoop(interval time.Duration, frame func(elapsed time.Duration), logger *zap.Logger) *FrameLoop {
	if interval <= 0 {
		panic("server.NewFrameLoop: interval must be > 0")
	}
	return &FrameLoop{interval: interval, frame: frame, logger: logger}
}

// Start runs frames until Stop is called.
//
// Postcondition: Returns nil after Stop, or ErrAlreadyStarted.
func (f *FrameLoop) Start() error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	if f.stopped {
		f.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()
	defer close(done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	last := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			f.logger.Debug("frame loop stopped", zap.Int("frames", frames))
			return nil
		case now := <-ticker.C:
			f.frame(now.Sub(last))
			last = now
			frames++
		}
	}
}

// Stop ends the loop and waits for the frame in progress.
func (f *FrameLoop) Stop() {
	f.mu.Lock()
	f.stopped = true
	cancel, done := f.cancel, f.done
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
