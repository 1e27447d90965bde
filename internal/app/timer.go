package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mayhomes/quiz/internal/domain"
)

// TimerPhase is the countdown lifecycle state.
type TimerPhase int

const (
	TimerIdle TimerPhase = iota
	TimerRunning
	TimerPaused
	TimerStopped
	TimerExpired
)

func (p TimerPhase) String() string {
	switch p {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerStopped:
		return "stopped"
	case TimerExpired:
		return "expired"
	default:
		return "idle"
	}
}

// Tier is the presentation severity derived from remaining time. It is
// informational only; the timer never acts on it.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// TierFor maps remaining seconds to a display tier: under two minutes is
// critical, under five is warning.
func TierFor(remaining int) Tier {
	switch {
	case remaining < 120:
		return TierCritical
	case remaining < 300:
		return TierWarning
	default:
		return TierNormal
	}
}

// FormatSeconds renders remaining seconds as MM:SS.
func FormatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// TickEvent is pushed to subscribers once per tick.
type TickEvent struct {
	Remaining int    `json:"remaining"`
	Display   string `json:"display"`
	Tier      Tier   `json:"tier"`
	Expired   bool   `json:"expired"`
}

// Timer is a wall-clock-anchored countdown. It persists its state once per
// tick so a reload can reconstruct remaining time by elapsed-wall-clock
// subtraction; a closed tab still spends real time against the countdown.
type Timer struct {
	store    Store
	key      string
	clock    func() time.Time
	interval time.Duration
	log      zerolog.Logger

	mu          sync.Mutex
	phase       TimerPhase
	remaining   int
	startTime   int64
	onExpire    func()
	cancel      chan struct{}
	subscribers map[chan TickEvent]struct{}
}

func NewTimer(store Store, key string, log zerolog.Logger) *Timer {
	return NewTimerWithClock(store, key, log, time.Now, time.Second)
}

// NewTimerWithClock allows deterministic clocks and fast intervals in tests.
func NewTimerWithClock(store Store, key string, log zerolog.Logger, clock func() time.Time, interval time.Duration) *Timer {
	return &Timer{
		store:       store,
		key:         key,
		clock:       clock,
		interval:    interval,
		log:         log.With().Str("component", "timer").Logger(),
		subscribers: make(map[chan TickEvent]struct{}),
	}
}

// Restore loads persisted timer state and reconciles it against the wall
// clock. Persistence read failures are swallowed: the countdown simply
// starts fresh. Returns true when state was restored.
func (t *Timer) Restore(ctx context.Context) bool {
	raw, err := t.store.Get(ctx, t.key)
	if err != nil {
		return false
	}
	var state domain.TimerState
	if err := json.Unmarshal(raw, &state); err != nil {
		t.log.Debug().Err(err).Msg("discarding unparsable timer state")
		return false
	}

	elapsed := int((t.clock().UnixMilli() - state.LastUpdate) / 1000)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := state.Remaining - elapsed
	if remaining < 0 {
		remaining = 0
	}

	t.mu.Lock()
	t.remaining = remaining
	t.startTime = state.StartTime
	t.mu.Unlock()

	t.log.Debug().Int("remaining", remaining).Msg("timer state restored")
	return true
}

// StartOrRestore resumes a persisted countdown or starts a fresh one. If the
// restored remaining time is already zero the timer is Expired and onExpire
// fires immediately without starting a tick loop.
func (t *Timer) StartOrRestore(ctx context.Context, duration time.Duration, onExpire func()) {
	if t.Restore(ctx) {
		t.mu.Lock()
		if t.remaining == 0 {
			t.phase = TimerExpired
			t.broadcastLocked()
			t.mu.Unlock()
			if onExpire != nil {
				onExpire()
			}
			return
		}
		t.mu.Unlock()
	}
	t.Start(duration, onExpire)
}

// Start begins ticking. Starting an already-running timer is a no-op. When a
// prior Restore left a positive remainder the countdown resumes from it,
// otherwise it starts from the configured duration.
func (t *Timer) Start(duration time.Duration, onExpire func()) {
	t.mu.Lock()
	if t.phase == TimerRunning || t.phase == TimerPaused || t.phase == TimerExpired {
		t.mu.Unlock()
		t.log.Warn().Stringer("phase", t.phase).Msg("timer already started")
		return
	}
	if t.remaining <= 0 {
		t.remaining = int(duration / time.Second)
	}
	t.startTime = t.clock().UnixMilli()
	t.onExpire = onExpire
	t.phase = TimerRunning
	t.cancel = make(chan struct{})
	cancel := t.cancel
	t.mu.Unlock()

	go t.loop(cancel)
}

func (t *Timer) loop(cancel chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Timer) tick() {
	t.mu.Lock()
	if t.phase != TimerRunning {
		t.mu.Unlock()
		return
	}
	t.remaining--
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.persistLocked()
	var fire func()
	if t.remaining == 0 {
		t.phase = TimerExpired
		fire = t.onExpire
		close(t.cancel)
	}
	t.broadcastLocked()
	t.mu.Unlock()

	// onExpire fires exactly once, on the Running -> Expired transition.
	if fire != nil {
		fire()
	}
}

func (t *Timer) persistLocked() {
	state := domain.TimerState{
		Remaining:  t.remaining,
		StartTime:  t.startTime,
		LastUpdate: t.clock().UnixMilli(),
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	// Persistence failures are non-fatal: the next reload simply resets.
	if err := t.store.Set(context.Background(), t.key, raw); err != nil {
		t.log.Debug().Err(err).Msg("timer state not persisted")
	}
}

// Pause suspends ticking without tearing down the loop.
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.phase == TimerRunning {
		t.phase = TimerPaused
	}
	t.mu.Unlock()
}

// Resume continues a paused countdown.
func (t *Timer) Resume() {
	t.mu.Lock()
	if t.phase == TimerPaused {
		t.phase = TimerRunning
	}
	t.mu.Unlock()
}

// Stop terminates the countdown without expiring it (manual submission
// path). Stopping twice, or stopping an expired timer, is a safe no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != TimerRunning && t.phase != TimerPaused {
		return
	}
	t.phase = TimerStopped
	close(t.cancel)
	t.broadcastLocked()
}

// Subscribe returns a channel receiving tick events, seeded with the current
// snapshot. The caller must invoke the cancel function to avoid leaks.
func (t *Timer) Subscribe() (<-chan TickEvent, func()) {
	ch := make(chan TickEvent, 8)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	initial := t.snapshotLocked()
	t.mu.Unlock()

	ch <- initial

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subscribers[ch]; ok {
			delete(t.subscribers, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}

func (t *Timer) broadcastLocked() {
	event := t.snapshotLocked()
	for ch := range t.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the stale event so slow readers never block the tick.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (t *Timer) snapshotLocked() TickEvent {
	return TickEvent{
		Remaining: t.remaining,
		Display:   FormatSeconds(t.remaining),
		Tier:      TierFor(t.remaining),
		Expired:   t.phase == TimerExpired,
	}
}

// Remaining reports seconds left on the countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Phase reports the current lifecycle state.
func (t *Timer) Phase() TimerPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Snapshot returns the current tick event without subscribing.
func (t *Timer) Snapshot() TickEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}
