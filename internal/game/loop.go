package game

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const commandQueueSize = 64

// Loop drives one session from a single goroutine. It plays the role of the
// display-refresh callback: a ticker fires armed frame callbacks, and
// commands from other goroutines are queued and run between frames, so the
// simulation never runs concurrently with itself.
//
// Request and Cancel must only be called from the loop goroutine, i.e.
// from inside a frame callback or a posted command.
type Loop struct {
	log      zerolog.Logger
	interval time.Duration

	pending  FrameCallback
	commands chan func()
	running  atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewLoop creates a loop ticking at interval. Call Start to run it.
func NewLoop(log zerolog.Logger, interval time.Duration) *Loop {
	return &Loop{
		log:      log.With().Str("component", "loop").Logger(),
		interval: interval,
		commands: make(chan func(), commandQueueSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the loop goroutine. Safe to call multiple times.
func (l *Loop) Start() {
	if l.running.Swap(true) {
		return
	}
	go l.run()
}

// Stop ends the loop and waits for the goroutine to exit. Safe to call
// multiple times.
func (l *Loop) Stop() {
	if !l.running.Swap(false) {
		return
	}
	close(l.stopChan)
	<-l.done
}

// Post queues fn to run on the loop goroutine. Returns false if the loop
// is not running or the queue is full.
func (l *Loop) Post(fn func()) bool {
	if !l.running.Load() {
		return false
	}
	select {
	case l.commands <- fn:
		return true
	case <-l.stopChan:
		return false
	default:
		l.log.Warn().Msg("Command queue full, dropping command")
		return false
	}
}

// Request arms the next frame callback
func (l *Loop) Request(cb FrameCallback) {
	l.pending = cb
}

// Cancel drops the armed frame callback
func (l *Loop) Cancel() {
	l.pending = nil
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		// Only listen to the ticker while a frame is armed
		var tick <-chan time.Time
		if l.pending != nil {
			tick = ticker.C
		}

		select {
		case <-l.stopChan:
			l.pending = nil
			return

		case fn := <-l.commands:
			idle := l.pending == nil
			fn()
			if idle && l.pending != nil {
				l.rearm(ticker)
			}

		case now := <-tick:
			cb := l.pending
			l.pending = nil
			cb(now)
		}
	}
}

// rearm restarts the ticker so a frame requested after an idle stretch
// never sees a tick that was buffered while nothing was armed
func (l *Loop) rearm(ticker *time.Ticker) {
	ticker.Reset(l.interval)
	select {
	case <-ticker.C:
	default:
	}
}
