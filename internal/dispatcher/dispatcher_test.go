package dispatcher

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/haldorgrim/netgram"
)

func newMsg(tag netgram.Tag) *netgram.Message {
	return netgram.NewOutgoingMessage(tag, 64)
}

func TestTickDeliversToAllSubscribersExactlyOnce(t *testing.T) {
	t.Parallel()

	d := New()
	var calls int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		d.Register(10, func(msg *netgram.Message) {
			atomic.AddInt32(&calls, 1)
			wg.Done()
		})
	}

	d.Stage(newMsg(10))
	d.Tick()
	wg.Wait()

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if d.QueueLen() != 0 {
		t.Errorf("QueueLen() = %d, want 0", d.QueueLen())
	}
}

func TestTickDeliversExactlyOnePerCall(t *testing.T) {
	t.Parallel()

	d := New()
	var delivered int32
	d.Register(1, func(msg *netgram.Message) { atomic.AddInt32(&delivered, 1) })

	const staged = 5
	for i := 0; i < staged; i++ {
		d.Stage(newMsg(1))
	}

	for k := 1; k <= 3; k++ {
		d.Tick()
		want := int32(k)
		if delivered != want {
			t.Errorf("after %d ticks delivered = %d, want %d", k, delivered, want)
		}
	}

	if d.QueueLen() != staged-3 {
		t.Errorf("QueueLen() = %d, want %d", d.QueueLen(), staged-3)
	}
}

func TestUnregisterTagStopsDelivery(t *testing.T) {
	t.Parallel()

	d := New()
	var calls int32
	d.Register(5, func(msg *netgram.Message) { atomic.AddInt32(&calls, 1) })
	d.UnregisterTag(5)

	d.Stage(newMsg(5))
	d.Tick()

	if calls != 0 {
		t.Errorf("calls = %d, want 0 after UnregisterTag", calls)
	}
}

func TestUnregisterByIndexRemovesOnlyThatCallback(t *testing.T) {
	t.Parallel()

	d := New()
	var first, second int32
	d.Register(7, func(msg *netgram.Message) { atomic.AddInt32(&first, 1) })
	d.Register(7, func(msg *netgram.Message) { atomic.AddInt32(&second, 1) })
	d.Unregister(7, 0)

	d.Stage(newMsg(7))
	d.Tick()

	if first != 0 {
		t.Errorf("first = %d, want 0 (removed)", first)
	}
	if second != 1 {
		t.Errorf("second = %d, want 1", second)
	}
}

func TestClearLeavesQueueUnaffected(t *testing.T) {
	t.Parallel()

	d := New()
	d.Register(3, func(msg *netgram.Message) {})
	d.Stage(newMsg(3))
	d.Clear()

	if d.QueueLen() != 1 {
		t.Errorf("QueueLen() = %d, want 1 (Clear must not touch the queue)", d.QueueLen())
	}
}

func TestPanickingCallbackDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	d := New()
	var ran bool
	d.Register(9, func(msg *netgram.Message) { panic("boom") })
	d.Register(9, func(msg *netgram.Message) { ran = true })

	d.Stage(newMsg(9))
	d.Tick()

	if !ran {
		t.Error("sibling callback did not run after a panicking callback")
	}
}

func TestTickOnEmptyQueueReturnsFalse(t *testing.T) {
	t.Parallel()

	d := New()
	if d.Tick() {
		t.Error("Tick() on empty queue = true, want false")
	}
}

func BenchmarkStageAndTick(b *testing.B) {
	d := New()
	d.Register(1, func(msg *netgram.Message) {})
	msg := newMsg(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Stage(msg)
		d.Tick()
	}
}
