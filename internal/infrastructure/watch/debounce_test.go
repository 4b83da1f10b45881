package watch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func(string) {
		count.Add(1)
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger("report.pdf")
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for debounce window to expire
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 callback invocation, got %d", got)
	}
	if d.Pending() != 0 {
		t.Errorf("expected no pending keys, got %d", d.Pending())
	}
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	var mu sync.Mutex
	fired := map[string]int{}
	d := NewDebouncer(30*time.Millisecond, func(key string) {
		mu.Lock()
		fired[key]++
		mu.Unlock()
	})
	defer d.Stop()

	d.Trigger("a.txt")
	d.Trigger("b.txt")
	d.Trigger("a.txt")

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired["a.txt"] != 1 || fired["b.txt"] != 1 {
		t.Errorf("unexpected callbacks %v", fired)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func(string) {
		count.Add(1)
	})

	d.Trigger("x")
	d.Stop()

	time.Sleep(100 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 callback invocations after stop, got %d", got)
	}
}
