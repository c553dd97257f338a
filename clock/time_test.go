package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, sub *Subscription, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(timeout):
		t.Fatalf("no event within %v", timeout)
		return Event{}
	}
}

func TestNewTimeClockRejectsZeroDuration(t *testing.T) {
	_, err := NewTimeClock(time.Now(), 0)
	assert.ErrorIs(t, err, ErrZeroEpochDuration)
}

func TestClockClampsBeforeGenesis(t *testing.T) {
	clock, err := NewTimeClock(time.Now().Add(time.Hour), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), clock.CurrentBlock())
	assert.Equal(t, uint64(0), clock.CurrentEpoch())
}

func TestClockStartsOnlyOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock, err := NewTimeClockNow(5)
	require.NoError(t, err)

	_, err = clock.Start(ctx)
	require.NoError(t, err)

	_, err = clock.Start(ctx)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestTimeClock(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time clock test")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	genesis := time.Now().Add(-30 * time.Second)
	clock, err := NewTimeClock(genesis, 5)
	require.NoError(t, err)

	assert.Equal(t, uint64(6), clock.CurrentEpoch())
	assert.GreaterOrEqual(t, clock.CurrentBlock(), uint64(30))

	ref, err := clock.Start(ctx)
	require.NoError(t, err)

	sub := ref.Subscribe()
	defer sub.Unsubscribe()

	ev := recvEvent(t, sub, 8*time.Second)
	assert.Equal(t, uint64(7), ev.Epoch)
	assert.Equal(t, uint64(7), ref.CurrentEpoch())
	assert.GreaterOrEqual(t, ref.CurrentBlock(), uint64(30))
}

func TestTimeClockCatchup(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time clock test")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	genesis := time.Now().Add(-30 * time.Second)
	clock, err := NewTimeClock(genesis, 2)
	require.NoError(t, err)

	// catch-up sets the counters directly, no replayed events
	assert.Equal(t, uint64(15), clock.CurrentEpoch())
	assert.GreaterOrEqual(t, clock.CurrentBlock(), uint64(30))

	ref, err := clock.Start(ctx)
	require.NoError(t, err)

	sub := ref.Subscribe()
	defer sub.Unsubscribe()

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected backlog event %+v", ev)
	default:
	}

	ev := recvEvent(t, sub, 4*time.Second)
	assert.Equal(t, uint64(16), ev.Epoch)

	ev = recvEvent(t, sub, 4*time.Second)
	assert.Equal(t, uint64(17), ev.Epoch)

	ev = recvEvent(t, sub, 4*time.Second)
	assert.Equal(t, uint64(18), ev.Epoch)

	assert.Equal(t, uint64(18), ref.CurrentEpoch())
	assert.GreaterOrEqual(t, ref.CurrentBlock(), uint64(35))
}

func TestEventBusDropsOldestOnOverflow(t *testing.T) {
	bus := newEventBus()
	sub := bus.subscribe()
	defer sub.Unsubscribe()

	total := BroadcastChannelSize + 6
	for i := 0; i < total; i++ {
		bus.publish(Event{Epoch: uint64(i)})
	}

	// the six oldest events were evicted
	first := <-sub.C
	assert.Equal(t, uint64(6), first.Epoch)

	count := 1
	for {
		select {
		case ev := <-sub.C:
			assert.Equal(t, uint64(6+count), ev.Epoch)
			count++
		default:
			assert.Equal(t, BroadcastChannelSize, count)
			return
		}
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := newEventBus()
	bus.publish(Event{Epoch: 1})

	sub := bus.subscribe()
	defer sub.Unsubscribe()
	select {
	case ev := <-sub.C:
		t.Fatalf("late subscriber saw historical event %+v", ev)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := newEventBus()
	sub := bus.subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	bus.publish(Event{Epoch: 9})
	select {
	case ev := <-sub.C:
		t.Fatalf("unsubscribed cursor received event %+v", ev)
	default:
	}
}
