package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAcquireConsumesBurst(t *testing.T) {
	l := New(10, 5)

	for i := 0; i < 5; i++ {
		if !l.Acquire(time.Second) {
			t.Fatalf("acquire %d failed with full bucket", i)
		}
	}

	// Bucket is drained; the next acquire must block for a measurable
	// amount of time before a token is replenished.
	start := time.Now()
	if !l.Acquire(time.Second) {
		t.Fatal("acquire after drain should succeed within 1s at 10 tokens/s")
	}
	if elapsed := time.Since(start); elapsed <= 0 {
		t.Errorf("expected measurable wait, got %v", elapsed)
	}
}

func TestAcquireTimeout(t *testing.T) {
	l := New(0.1, 1) // one token, ~10s to replenish

	if !l.Acquire(time.Second) {
		t.Fatal("first acquire should succeed")
	}
	if l.Acquire(50 * time.Millisecond) {
		t.Error("acquire should time out with an empty bucket and slow rate")
	}

	// Timed-out acquire must not have consumed anything; utilization
	// should still reflect an empty-but-refilling bucket, not a deficit.
	st := l.Status()
	if st.Tokens < 0 {
		t.Errorf("token count went negative: %f", st.Tokens)
	}
}

func TestTokensNeverExceedBurst(t *testing.T) {
	l := New(1000, 3)
	time.Sleep(50 * time.Millisecond) // plenty of time to overfill at 1000/s

	st := l.Status()
	if st.Tokens > float64(st.Capacity) {
		t.Errorf("tokens %f exceed capacity %d", st.Tokens, st.Capacity)
	}
	if st.Capacity != 3 {
		t.Errorf("capacity = %d, want 3", st.Capacity)
	}
}

func TestStatusFields(t *testing.T) {
	l := New(8, 20)
	st := l.Status()

	if st.Rate != 8 {
		t.Errorf("rate = %f, want 8", st.Rate)
	}
	if st.Capacity != 20 {
		t.Errorf("capacity = %d, want 20", st.Capacity)
	}
	if st.Utilization < 0 || st.Utilization > 100 {
		t.Errorf("utilization out of range: %f", st.Utilization)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	l := New(1000, 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire(time.Second) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 50 {
		t.Errorf("acquired = %d, want 50", acquired)
	}
	if st := l.Status(); st.Tokens > float64(st.Capacity) {
		t.Errorf("tokens %f exceed capacity after concurrent use", st.Tokens)
	}
}

func TestDefaults(t *testing.T) {
	l := New(0, 0)
	st := l.Status()
	if st.Rate != DefaultRate || st.Capacity != DefaultBurst {
		t.Errorf("defaults not applied: rate=%f capacity=%d", st.Rate, st.Capacity)
	}
}
