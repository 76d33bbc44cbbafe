package app

import "testing"

func TestOneShotPollEmptyThenOk(t *testing.T) {
	ch := make(chan int, 1)
	slot := newOneShot[int](ch)

	if _, ok, closed := slot.poll(); ok || closed {
		t.Fatal("expected empty poll before any send")
	}

	ch <- 42
	v, ok, closed := slot.poll()
	if !ok || closed || v != 42 {
		t.Fatalf("expected ok=true value=42, got ok=%v closed=%v value=%v", ok, closed, v)
	}
}

func TestOneShotPollClosed(t *testing.T) {
	ch := make(chan int)
	close(ch)
	slot := newOneShot[int](ch)

	_, ok, closed := slot.poll()
	if ok || !closed {
		t.Fatalf("expected closed=true ok=false, got ok=%v closed=%v", ok, closed)
	}
}

func TestAbortRegistryReplaceCancelsPrevious(t *testing.T) {
	r := newAbortRegistry()

	cancelled1 := false
	r.Replace("k", func() { cancelled1 = true })

	cancelled2 := false
	r.Replace("k", func() { cancelled2 = true })

	if !cancelled1 {
		t.Fatal("expected replacing a handle to cancel the previous one")
	}
	if cancelled2 {
		t.Fatal("expected the new handle to remain active until replaced or aborted")
	}
}

func TestAbortRegistryAbortAllCancelsEverything(t *testing.T) {
	r := newAbortRegistry()
	var calls int
	r.Replace("a", func() { calls++ })
	r.Replace("b", func() { calls++ })

	r.AbortAll()
	if calls != 2 {
		t.Fatalf("expected both handles cancelled, got %d calls", calls)
	}

	// AbortAll must clear the registry so a second call is a no-op.
	r.AbortAll()
	if calls != 2 {
		t.Fatalf("expected no further cancellations, got %d calls", calls)
	}
}
