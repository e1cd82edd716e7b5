package order

import (
	"sync"
	"testing"
	"time"
)

// recordingSink captures transitions and progress ticks.
type recordingSink struct {
	mu          sync.Mutex
	transitions []string
	ticks       int
}

func (s *recordingSink) OrderStatusChanged(orderID string, oldStatus, newStatus Status, remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, string(oldStatus)+"->"+string(newStatus))
}

func (s *recordingSink) OrderProgress(orderID string, status Status, remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
}

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transitions...)
}

func testOrder() *Order {
	lines := []Line{{ItemID: "F001", Name: "Veg Momo", Quantity: 2, Price: 12.5}}
	return New("ORD-1", "C001", "V001", lines, 25.0)
}

func TestOrderStartsPending(t *testing.T) {
	o := testOrder()
	if got := o.Status(); got != StatusPending {
		t.Errorf("Status() = %v, want %v", got, StatusPending)
	}
	if got := o.Remaining(); got != 0 {
		t.Errorf("Remaining() before preparation = %v, want 0", got)
	}
}

func TestLifecycleAdvancesOnSchedule(t *testing.T) {
	o := testOrder()
	o.StartPreparation(300*time.Millisecond, 0)

	// Before T/2 the order is still pending
	time.Sleep(75 * time.Millisecond)
	if got := o.Status(); got != StatusPending {
		t.Errorf("Status() before T/2 = %v, want %v", got, StatusPending)
	}

	// Between T/2 and T it is preparing
	time.Sleep(150 * time.Millisecond)
	if got := o.Status(); got != StatusPreparing {
		t.Errorf("Status() between T/2 and T = %v, want %v", got, StatusPreparing)
	}

	// At/after T it is ready
	time.Sleep(150 * time.Millisecond)
	if got := o.Status(); got != StatusReady {
		t.Errorf("Status() after T = %v, want %v", got, StatusReady)
	}
	if !o.Status().Terminal() {
		t.Error("ready must be terminal")
	}
}

func TestCancelBeforeReadyStaysCancelled(t *testing.T) {
	o := testOrder()
	o.StartPreparation(200*time.Millisecond, 0)

	time.Sleep(50 * time.Millisecond)
	if !o.Cancel() {
		t.Fatal("Cancel() before T should commit")
	}
	if got := o.Status(); got != StatusCancelled {
		t.Fatalf("Status() = %v, want %v", got, StatusCancelled)
	}

	// Both lifecycle triggers fire after this sleep and must be ignored
	time.Sleep(300 * time.Millisecond)
	if got := o.Status(); got != StatusCancelled {
		t.Errorf("Status() after triggers = %v, want %v", got, StatusCancelled)
	}
}

func TestCancelAfterReadyIsNoOp(t *testing.T) {
	o := testOrder()
	o.StartPreparation(100*time.Millisecond, 0)

	time.Sleep(200 * time.Millisecond)
	if got := o.Status(); got != StatusReady {
		t.Fatalf("Status() = %v, want %v", got, StatusReady)
	}

	if o.Cancel() {
		t.Error("Cancel() on a fulfilled order should be a no-op")
	}
	if got := o.Status(); got != StatusReady {
		t.Errorf("Status() = %v, want %v", got, StatusReady)
	}
}

func TestSinkSeesTransitionsInOrder(t *testing.T) {
	o := testOrder()
	sink := &recordingSink{}
	o.Subscribe(sink)

	o.StartPreparation(150*time.Millisecond, 0)
	time.Sleep(300 * time.Millisecond)

	want := []string{"pending->preparing", "preparing->ready"}
	got := sink.snapshot()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transitions[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestProgressTicksUntilTerminal(t *testing.T) {
	o := testOrder()
	sink := &recordingSink{}
	o.Subscribe(sink)

	o.StartPreparation(250*time.Millisecond, 50*time.Millisecond)
	time.Sleep(400 * time.Millisecond)

	sink.mu.Lock()
	ticks := sink.ticks
	sink.mu.Unlock()

	if ticks < 2 {
		t.Errorf("ticks = %d, want at least 2", ticks)
	}
}

func TestStartPreparationIsIdempotent(t *testing.T) {
	o := testOrder()
	sink := &recordingSink{}
	o.Subscribe(sink)

	o.StartPreparation(100*time.Millisecond, 0)
	o.StartPreparation(100*time.Millisecond, 0)
	time.Sleep(250 * time.Millisecond)

	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("transitions = %d, want 2 (second start must not reschedule)", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	lines := []Line{{ItemID: "F001", Name: "Veg Momo", Quantity: 2, Price: 12.5}}
	o := New("ORD-1", "C001", "V001", lines, 25.0)

	// Mutating the source slice after construction must not leak in
	lines[0].Quantity = 99
	if got := o.Lines()[0].Quantity; got != 2 {
		t.Errorf("snapshot quantity = %d, want 2", got)
	}

	// Mutating a returned copy must not affect the order
	copied := o.Lines()
	copied[0].Quantity = 7
	if got := o.Lines()[0].Quantity; got != 2 {
		t.Errorf("snapshot quantity = %d, want 2 after mutating the copy", got)
	}
}
