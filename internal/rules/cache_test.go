package rules

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// countingProducer returns a fixed value and counts invocations.
func countingProducer(value string, calls *int32) Producer {
	return ProducerFunc(func() (string, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	})
}

// --- Get ---

func TestGet_ResolvesOnFirstAccess(t *testing.T) {
	c := NewCache()
	var calls int32
	c.RegisterLazy("k", countingProducer("hello", &calls))

	if calls != 0 {
		t.Fatal("RegisterLazy must not invoke the producer")
	}

	got, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("Get = %q, want hello", got)
	}
	if calls != 1 {
		t.Errorf("producer called %d times, want 1", calls)
	}
}

func TestGet_MemoizesAcrossCalls(t *testing.T) {
	c := NewCache()
	var calls int32
	c.RegisterLazy("k", countingProducer("v", &calls))

	for i := 0; i < 5; i++ {
		got, err := c.Get("k")
		if err != nil || got != "v" {
			t.Fatalf("Get #%d = %q (%v)", i, got, err)
		}
	}
	if calls != 1 {
		t.Errorf("producer called %d times for 5 Gets, want 1", calls)
	}
}

func TestGet_UnregisteredKey(t *testing.T) {
	c := NewCache()

	_, err := c.Get("missing")
	if err == nil {
		t.Fatal("Get on an unregistered key should fail")
	}
	var unreg *UnregisteredResourceError
	if !errors.As(err, &unreg) {
		t.Fatalf("error should be UnregisteredResourceError, got %T", err)
	}
	if unreg.Key != "missing" {
		t.Errorf("Key = %q, want missing", unreg.Key)
	}
}

func TestGet_FailureIsNotCached(t *testing.T) {
	c := NewCache()
	var calls int32
	c.RegisterLazy("k", ProducerFunc(func() (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "", fmt.Errorf("transient read failure")
		}
		return "recovered", nil
	}))

	if _, err := c.Get("k"); err == nil {
		t.Fatal("first Get should surface the producer failure")
	}

	// The failure was not memoized — the retry invokes the producer again.
	got, err := c.Get("k")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got != "recovered" {
		t.Errorf("retry = %q, want recovered", got)
	}
	if calls != 2 {
		t.Errorf("producer called %d times, want 2", calls)
	}
}

func TestGet_ConcurrentFirstAccessProducesOnce(t *testing.T) {
	c := NewCache()
	var calls int32
	c.RegisterLazy("k", countingProducer("shared", &calls))

	const n = 16
	var wg sync.WaitGroup
	results := make([]string, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := c.Get("k")
			if err != nil {
				t.Errorf("goroutine %d: Get failed: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("producer called %d times under racing first access, want 1", calls)
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("goroutine %d observed %q", i, v)
		}
	}
}

// --- RegisterLazy ---

func TestRegisterLazy_ReplaceBeforeResolve(t *testing.T) {
	c := NewCache()
	c.RegisterLazy("k", ProducerFunc(func() (string, error) { return "first", nil }))
	c.RegisterLazy("k", ProducerFunc(func() (string, error) { return "second", nil }))

	got, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "second" {
		t.Errorf("Get = %q, want second (last registration wins)", got)
	}
}

func TestRegisterLazy_NoopAfterResolve(t *testing.T) {
	c := NewCache()
	c.RegisterLazy("k", ProducerFunc(func() (string, error) { return "resolved", nil }))
	if _, err := c.Get("k"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	c.RegisterLazy("k", ProducerFunc(func() (string, error) { return "replacement", nil }))

	got, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "resolved" {
		t.Errorf("Get = %q, want resolved (cached value is the source of truth)", got)
	}
}

// --- Resolved ---

func TestResolved(t *testing.T) {
	c := NewCache()
	var calls int32
	c.RegisterLazy("k", countingProducer("v", &calls))

	if c.Resolved("k") {
		t.Error("Resolved should be false before first Get")
	}
	if c.Resolved("other") {
		t.Error("Resolved should be false for unregistered keys")
	}
	if calls != 0 {
		t.Error("Resolved must never trigger a load")
	}

	if _, err := c.Get("k"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !c.Resolved("k") {
		t.Error("Resolved should be true after Get")
	}
}
