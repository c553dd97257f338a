package clock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/agglayer/agglayer-go/log"
)

// ErrZeroEpochDuration is returned when constructing a clock with an epoch
// duration of zero blocks.
var ErrZeroEpochDuration = errors.New("epoch duration must be a positive number of blocks")

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("clock already started")

// TimeClock simulates blockchain block production by increasing the block
// number by 1 every second. The epoch duration, in blocks, is fixed at
// construction.
//
// The counters are single-writer (the clock goroutine) and multi-reader;
// readers load them atomically and never block.
type TimeClock struct {
	genesis       time.Time
	epochDuration uint64
	currentBlock  *atomic.Uint64
	currentEpoch  *atomic.Uint64
	started       atomic.Bool
	bus           *eventBus
}

// NewTimeClock creates a clock from a genesis timestamp and an epoch
// duration in blocks. The counters immediately reflect the time already
// elapsed since genesis: a genesis 30 seconds in the past with a 5-block
// epoch starts at block 30, epoch 6.
func NewTimeClock(genesis time.Time, epochDuration uint64) (*TimeClock, error) {
	if epochDuration == 0 {
		return nil, ErrZeroEpochDuration
	}

	clock := &TimeClock{
		genesis:       genesis,
		epochDuration: epochDuration,
		currentBlock:  new(atomic.Uint64),
		currentEpoch:  new(atomic.Uint64),
		bus:           newEventBus(),
	}
	clock.computeBlock()
	clock.computeEpoch()

	return clock, nil
}

// NewTimeClockNow creates a clock whose genesis is the current time.
func NewTimeClockNow(epochDuration uint64) (*TimeClock, error) {
	return NewTimeClock(time.Now(), epochDuration)
}

// CurrentBlock returns the current block counter.
func (c *TimeClock) CurrentBlock() uint64 {
	return c.currentBlock.Load()
}

// CurrentEpoch returns the current epoch counter.
func (c *TimeClock) CurrentEpoch() uint64 {
	return c.currentEpoch.Load()
}

// Start recomputes the counters from the wall clock and spawns the ticking
// goroutine, which runs until ctx is done. It may be called at most once per
// clock; the returned handle shares the live counters and accepts
// subscriptions at any later time.
//
// Epoch boundaries crossed before Start produce no events: the counters are
// always wall-clock-accurate, the event stream only reports new crossings.
func (c *TimeClock) Start(ctx context.Context) (*ClockRef, error) {
	if !c.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	c.computeBlock()
	c.computeEpoch()

	ref := &ClockRef{
		currentBlock: c.currentBlock,
		currentEpoch: c.currentEpoch,
		bus:          c.bus,
	}

	go c.run(ctx)

	log.Info(log.ClockMonitoring, "Epoch clock started",
		"block", c.CurrentBlock(), "epoch", c.CurrentEpoch(), "epochDuration", c.epochDuration)

	return ref, nil
}

// run ticks once per second: increment the block counter, and on an exact
// multiple of the epoch duration recompute the epoch and broadcast the
// change. There is no fallible path here.
func (c *TimeClock) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			block := c.currentBlock.Add(1)
			if block%c.epochDuration == 0 {
				c.computeEpoch()
				epoch := c.currentEpoch.Load()
				c.bus.publish(Event{Epoch: epoch})
				log.Debug(log.ClockMonitoring, "Epoch change", "epoch", epoch, "block", block)
			}
		}
	}
}

// computeBlock derives the block counter from the genesis timestamp: the
// number of whole seconds elapsed, clamped at zero when the wall clock is
// before genesis.
func (c *TimeClock) computeBlock() {
	blocks := int64(time.Since(c.genesis).Seconds())
	if blocks < 0 {
		blocks = 0
	}
	c.currentBlock.Store(uint64(blocks))
}

// computeEpoch derives the epoch counter: block number divided by the epoch
// duration.
func (c *TimeClock) computeEpoch() {
	c.currentEpoch.Store(c.currentBlock.Load() / c.epochDuration)
}
