package fixed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goadmit/goadmit/internal/testutil"
	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/limit"
	"github.com/goadmit/goadmit/pkg/limit/semaphore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Name: "api", Permits: 5}, false},
		{"unlimited", Config{Name: "api"}, false},
		{"negative permits", Config{Name: "api", Permits: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lim, err := New(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, lim.Name(), tt.config.Name)
			testutil.AssertEqual(t, lim.Type(), limit.TypeFixed)
		})
	}
}

func TestConcurrencyCeiling(t *testing.T) {
	const capacity = 3
	lim, err := New(Config{Name: "api", Permits: capacity, QueueLength: -1})
	testutil.AssertNoError(t, err)

	var running, peak atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	rejections := make(chan error, 10)

	for i := 0; i < capacity+2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lim.Invoke(context.Background(), func() error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-release
				running.Add(-1)
				return nil
			})
			if err != nil {
				rejections <- err
			}
		}()
	}

	// Let the first three tasks start and the overflow callers be rejected.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(rejections)

	if got := peak.Load(); got > capacity {
		t.Errorf("peak concurrency %d exceeds capacity %d", got, capacity)
	}

	var rejected int
	for err := range rejections {
		rejected++
		if !gaerrors.IsRejection(err) {
			t.Errorf("expected rejection error, got %v", err)
		}
	}
	testutil.AssertEqual(t, rejected, 2)
}

func TestImmediateRejectWithoutQueue(t *testing.T) {
	lim, err := New(Config{Name: "api", Permits: 1, QueueLength: -1})
	testutil.AssertNoError(t, err)

	tok, err := lim.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)

	start := time.Now()
	_, err = lim.TryAcquire(context.Background())
	if !errors.Is(err, gaerrors.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("rejection waited %v, expected immediate", elapsed)
	}

	tok.Success()
}

func TestQueuedCallerAdmittedOnRelease(t *testing.T) {
	lim, err := New(Config{Name: "api", Permits: 1, QueueLength: 1, QueueTimeout: time.Second})
	testutil.AssertNoError(t, err)

	tok, err := lim.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- lim.Invoke(context.Background(), func() error { return nil })
	}()

	time.Sleep(20 * time.Millisecond)
	tok.Success()

	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("queued caller never admitted")
	}
}

func TestTaskErrorPropagatesAfterRelease(t *testing.T) {
	lim, err := New(Config{Name: "api", Permits: 1})
	testutil.AssertNoError(t, err)

	boom := errors.New("boom")
	got := lim.Invoke(context.Background(), func() error { return boom })
	if !errors.Is(got, boom) {
		t.Fatalf("expected task error, got %v", got)
	}

	// The permit must be back.
	testutil.AssertEqual(t, lim.Outstanding(), 0)
}

func TestIgnoreSurfacesUnderlyingResult(t *testing.T) {
	lim, err := New(Config{Name: "api", Permits: 1})
	testutil.AssertNoError(t, err)

	boom := errors.New("boom")
	got := lim.Invoke(context.Background(), func() error { return limit.Ignore(boom) })
	if !errors.Is(got, boom) {
		t.Fatalf("expected underlying error, got %v", got)
	}

	got = lim.Invoke(context.Background(), func() error { return limit.Ignore(nil) })
	testutil.AssertNoError(t, got)
	testutil.AssertEqual(t, lim.Outstanding(), 0)
}

func TestUnlimitedPassThrough(t *testing.T) {
	lim, err := New(Config{Name: "api"})
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lim.Invoke(context.Background(), func() error { return nil }); err != nil {
				t.Errorf("unexpected rejection: %v", err)
			}
		}()
	}
	wg.Wait()
	testutil.AssertEqual(t, lim.CurrentLimit(), 0)
}

func TestInjectedStoreShared(t *testing.T) {
	store, err := semaphore.New(1, 0)
	testutil.AssertNoError(t, err)

	a, err := New(Config{Name: "a", Store: store})
	testutil.AssertNoError(t, err)
	b, err := New(Config{Name: "b", Store: store})
	testutil.AssertNoError(t, err)

	tok, err := a.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)

	if _, err := b.TryAcquire(context.Background()); !gaerrors.IsRejection(err) {
		t.Fatalf("expected rejection from shared store, got %v", err)
	}

	tok.Success()
	tok2, err := b.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)
	tok2.Success()
}

func TestDoReturnsValue(t *testing.T) {
	lim, err := New(Config{Name: "api", Permits: 1})
	testutil.AssertNoError(t, err)

	got, err := limit.Do(context.Background(), lim, func() (int, error) {
		return 42, nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 42)
}

func TestDoubleResolveReleasesOnce(t *testing.T) {
	lim, err := New(Config{Name: "api", Permits: 1, QueueLength: -1})
	testutil.AssertNoError(t, err)

	tok, err := lim.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, tok.Success(), true)
	testutil.AssertEqual(t, tok.Success(), false)
	testutil.AssertEqual(t, tok.Dropped(), false)

	// A second resolution must not mint an extra permit.
	tok2, err := lim.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)
	if _, err := lim.TryAcquire(context.Background()); !gaerrors.IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	tok2.Success()
}
