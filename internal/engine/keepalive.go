package engine

import (
	"sync"
	"time"
)

// Keepalive tracks open handles per collection path. Once every path has
// been idle for the timeout, onAllIdle runs; the accessor uses it to stop the
// engine.
type Keepalive struct {
	mu          sync.Mutex
	timers      map[string]*time.Timer
	timerIDs    map[string]uint64
	nextTimerID uint64
	inFlight    map[string]int
	timeout     time.Duration
	onAllIdle   func()
}

// NewKeepalive creates a keepalive. A non-positive timeout disables it.
func NewKeepalive(timeout time.Duration, onAllIdle func()) *Keepalive {
	return &Keepalive{
		timers:    make(map[string]*time.Timer),
		timerIDs:  make(map[string]uint64),
		inFlight:  make(map[string]int),
		timeout:   timeout,
		onAllIdle: onAllIdle,
	}
}

// Begin marks a handle opened on path. Any idle timer for path is canceled.
func (k *Keepalive) Begin(path string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.stopTimerLocked(path)
	k.inFlight[path]++
}

// End marks a handle on path closed. The idle timer starts only after the
// last handle on path closes.
func (k *Keepalive) End(path string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := k.inFlight[path]
	if n > 1 {
		k.inFlight[path] = n - 1
		return
	}

	delete(k.inFlight, path)
	k.startTimerLocked(path)
}

// Open reports how many handles are open on path.
func (k *Keepalive) Open(path string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.inFlight[path]
}

func (k *Keepalive) stopTimerLocked(path string) {
	if t, ok := k.timers[path]; ok {
		t.Stop()
		delete(k.timers, path)
		delete(k.timerIDs, path)
	}
}

func (k *Keepalive) startTimerLocked(path string) {
	k.stopTimerLocked(path)
	if k.timeout <= 0 {
		return
	}

	k.nextTimerID++
	timerID := k.nextTimerID
	timer := time.AfterFunc(k.timeout, func() {
		k.expire(path, timerID)
	})
	k.timers[path] = timer
	k.timerIDs[path] = timerID
}

func (k *Keepalive) expire(path string, timerID uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	currentID, ok := k.timerIDs[path]
	if !ok || currentID != timerID || k.inFlight[path] > 0 {
		return
	}

	delete(k.timers, path)
	delete(k.timerIDs, path)
	if len(k.timers) == 0 && len(k.inFlight) == 0 && k.onAllIdle != nil {
		go k.onAllIdle()
	}
}

// Stop cancels all timers.
func (k *Keepalive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, t := range k.timers {
		t.Stop()
	}
	k.timers = make(map[string]*time.Timer)
	k.timerIDs = make(map[string]uint64)
	k.inFlight = make(map[string]int)
}
