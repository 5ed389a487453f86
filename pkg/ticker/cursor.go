// Package ticker rotates a highlighted instrument through a fixed list on a timer,
// with play/pause control.
package ticker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/pkg/models"
)

const DefaultInterval = 3 * time.Second

type Options struct {
	Interval time.Duration
	AutoPlay bool
}

// Snapshot is a read-only view of the cursor. Index is -1 and Current nil when empty.
type Snapshot struct {
	Index       int                 `json:"index"`
	Running     bool                `json:"running"`
	Current     *models.Instrument  `json:"current,omitempty"`
	Instruments []models.Instrument `json:"instruments"`
}

type Listener func(Snapshot)

type Cursor struct {
	mu          sync.Mutex
	instruments []models.Instrument
	index       int
	running     bool
	closed      bool

	interval  time.Duration
	scheduler Scheduler
	stop      func()
	// gen invalidates callbacks from a cancelled schedule that were already in flight
	gen uint64

	// notifyMu serializes delivery so listeners see snapshots in commit order
	notifyMu   sync.Mutex
	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int

	logger *zap.Logger
}

// NewCursor builds a cursor over a copy of instruments. An empty list is allowed;
// Current then reports absence and no timer is ever scheduled.
func NewCursor(instruments []models.Instrument, opts Options, scheduler Scheduler, logger *zap.Logger) *Cursor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cursor{
		instruments: cloneAll(instruments),
		interval:    opts.Interval,
		scheduler:   scheduler,
		listeners:   make(map[int]Listener),
		logger:      logger,
	}

	if opts.AutoPlay {
		c.mu.Lock()
		c.startLocked()
		c.mu.Unlock()
	}
	return c
}

// Current returns the highlighted instrument, or false if the list is empty.
func (c *Cursor) Current() (models.Instrument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.instruments) == 0 {
		return models.Instrument{}, false
	}
	return c.instruments[c.index].Clone(), true
}

// Index returns the current position, or -1 if the list is empty.
func (c *Cursor) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.instruments) == 0 {
		return -1
	}
	return c.index
}

func (c *Cursor) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Cursor) Len() int {
	return len(c.instruments) // never mutated after construction
}

func (c *Cursor) Instruments() []models.Instrument {
	return cloneAll(c.instruments)
}

func (c *Cursor) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Toggle flips between running and paused and returns the new running flag.
func (c *Cursor) Toggle() bool {
	c.mu.Lock()
	if c.running {
		c.pauseLocked()
	} else {
		c.startLocked()
	}
	running := c.running
	c.mu.Unlock()

	c.notify()
	return running
}

// Play starts rotation if paused. A fresh full interval elapses before the next advance.
func (c *Cursor) Play() {
	c.mu.Lock()
	changed := !c.running
	if changed {
		c.startLocked()
	}
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

// Pause stops rotation and cancels the pending advance.
func (c *Cursor) Pause() {
	c.mu.Lock()
	changed := c.running
	if changed {
		c.pauseLocked()
	}
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

// Close cancels the timer and detaches listeners. It waits for a delivery already in
// progress, so no listener runs after Close returns. Must not be called from a listener.
func (c *Cursor) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pauseLocked()
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.listenerMu.Lock()
	c.listeners = make(map[int]Listener)
	c.listenerMu.Unlock()
}

// Notify re-sends the current snapshot to every listener.
func (c *Cursor) Notify() {
	c.notify()
}

// Subscribe registers l for change notifications and returns a func that removes it.
// Listeners run one at a time and must not call back into the cursor.
func (c *Cursor) Subscribe(l Listener) (unsubscribe func()) {
	c.listenerMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenerMu.Lock()
			delete(c.listeners, id)
			c.listenerMu.Unlock()
		})
	}
}

// startLocked requires c.mu. A closed cursor stays paused.
func (c *Cursor) startLocked() {
	if c.closed {
		return
	}
	c.running = true
	c.gen++
	if len(c.instruments) == 0 {
		c.logger.Debug("Ticker running with no instruments, nothing to schedule")
		return
	}

	gen := c.gen
	c.stop = c.scheduler.Every(c.interval, func() { c.advance(gen) })
	c.logger.Debug("Ticker started", zap.Duration("interval", c.interval), zap.Int("index", c.index))
}

// pauseLocked requires c.mu.
func (c *Cursor) pauseLocked() {
	c.running = false
	c.gen++
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.logger.Debug("Ticker paused", zap.Int("index", c.index))
}

func (c *Cursor) advance(gen uint64) {
	c.mu.Lock()
	if c.closed || !c.running || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.index = (c.index + 1) % len(c.instruments)
	c.mu.Unlock()

	c.notify()
}

func (c *Cursor) snapshotLocked() Snapshot {
	snap := Snapshot{
		Index:       -1,
		Running:     c.running,
		Instruments: cloneAll(c.instruments),
	}
	if len(c.instruments) > 0 {
		cur := c.instruments[c.index].Clone()
		snap.Index = c.index
		snap.Current = &cur
	}
	return snap
}

func (c *Cursor) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	// The snapshot is taken inside the delivery lock so the last delivery always
	// carries the latest committed state.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.listenerMu.Lock()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.listenerMu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}

func cloneAll(in []models.Instrument) []models.Instrument {
	out := make([]models.Instrument, len(in))
	for i, inst := range in {
		out[i] = inst.Clone()
	}
	return out
}
