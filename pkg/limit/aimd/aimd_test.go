package aimd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goadmit/goadmit/internal/testutil"
	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/limit"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", Config{Name: "api"}, false},
		{"explicit", Config{Name: "api", MinLimit: 2, MaxLimit: 50, InitialLimit: 10, BackoffRatio: 0.8}, false},
		{"negative min", Config{Name: "api", MinLimit: -1}, true},
		{"max below min", Config{Name: "api", MinLimit: 10, MaxLimit: 5}, true},
		{"initial above max", Config{Name: "api", MaxLimit: 5, InitialLimit: 10}, true},
		{"initial below min", Config{Name: "api", MinLimit: 10, MaxLimit: 50, InitialLimit: 5}, true},
		{"backoff ratio one", Config{Name: "api", BackoffRatio: 1.0}, true},
		{"backoff ratio negative", Config{Name: "api", BackoffRatio: -0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lim, err := New(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				if !gaerrors.IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, lim.Type(), limit.TypeAimd)
		})
	}
}

func TestDefaults(t *testing.T) {
	lim, err := New(Config{Name: "api"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, lim.CurrentLimit(), DefaultInitialLimit)
}

func resolveOne(t *testing.T, lim *Limit, outcome limit.Outcome) {
	t.Helper()
	tok, err := lim.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)
	switch outcome {
	case limit.OutcomeSuccess:
		tok.Success()
	case limit.OutcomeDropped:
		tok.Dropped()
	case limit.OutcomeIgnored:
		tok.Ignored()
	}
}

func TestAdditiveIncrease(t *testing.T) {
	lim, err := New(Config{Name: "api", MinLimit: 1, MaxLimit: 15, InitialLimit: 10, BackoffRatio: 0.9})
	testutil.AssertNoError(t, err)

	for i := 0; i < 3; i++ {
		resolveOne(t, lim, limit.OutcomeSuccess)
	}
	testutil.AssertEqual(t, lim.CurrentLimit(), 13)

	// Growth clamps at the maximum.
	for i := 0; i < 10; i++ {
		resolveOne(t, lim, limit.OutcomeSuccess)
	}
	testutil.AssertEqual(t, lim.CurrentLimit(), 15)
}

func TestMultiplicativeDecrease(t *testing.T) {
	lim, err := New(Config{Name: "api", MinLimit: 1, MaxLimit: 100, InitialLimit: 20, BackoffRatio: 0.9})
	testutil.AssertNoError(t, err)

	resolveOne(t, lim, limit.OutcomeDropped)
	testutil.AssertEqual(t, lim.CurrentLimit(), 18) // floor(20 * 0.9)

	resolveOne(t, lim, limit.OutcomeDropped)
	testutil.AssertEqual(t, lim.CurrentLimit(), 16) // floor(18 * 0.9)
}

func TestDecreaseClampsAtMin(t *testing.T) {
	lim, err := New(Config{Name: "api", MinLimit: 5, MaxLimit: 100, InitialLimit: 6, BackoffRatio: 0.5})
	testutil.AssertNoError(t, err)

	resolveOne(t, lim, limit.OutcomeDropped)
	testutil.AssertEqual(t, lim.CurrentLimit(), 5)

	resolveOne(t, lim, limit.OutcomeDropped)
	testutil.AssertEqual(t, lim.CurrentLimit(), 5)
}

func TestIgnoredLeavesCeilingUnchanged(t *testing.T) {
	lim, err := New(Config{Name: "api", InitialLimit: 20})
	testutil.AssertNoError(t, err)

	resolveOne(t, lim, limit.OutcomeIgnored)
	testutil.AssertEqual(t, lim.CurrentLimit(), 20)

	boom := errors.New("unrelated")
	got := lim.Invoke(context.Background(), func() error { return limit.Ignore(boom) })
	if !errors.Is(got, boom) {
		t.Fatalf("expected underlying error, got %v", got)
	}
	testutil.AssertEqual(t, lim.CurrentLimit(), 20)
}

func TestErrorShrinksCeiling(t *testing.T) {
	lim, err := New(Config{Name: "api", InitialLimit: 20})
	testutil.AssertNoError(t, err)

	boom := errors.New("boom")
	got := lim.Invoke(context.Background(), func() error { return boom })
	if !errors.Is(got, boom) {
		t.Fatalf("expected task error, got %v", got)
	}
	testutil.AssertEqual(t, lim.CurrentLimit(), 18)
}

func TestLatencyThresholdShrinksOnSlowSuccess(t *testing.T) {
	lim, err := New(Config{
		Name:         "api",
		InitialLimit: 20,
		Classifier:   limit.LatencyThreshold(10 * time.Millisecond),
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, lim.Invoke(context.Background(), func() error {
		time.Sleep(30 * time.Millisecond)
		return nil
	}))
	testutil.AssertEqual(t, lim.CurrentLimit(), 18)
}

func TestGrowthAdmitsQueuedWaiter(t *testing.T) {
	lim, err := New(Config{
		Name:         "api",
		MinLimit:     1,
		MaxLimit:     10,
		InitialLimit: 1,
		QueueLength:  5,
		QueueTimeout: 2 * time.Second,
	})
	testutil.AssertNoError(t, err)

	tok, err := lim.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- lim.Invoke(context.Background(), func() error { return nil })
	}()
	time.Sleep(20 * time.Millisecond)

	// The success grows the ceiling to 2; the waiter gets the new permit.
	tok.Success()

	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not admitted after ceiling growth")
	}
}

func TestCeilingBoundsConcurrency(t *testing.T) {
	lim, err := New(Config{
		Name:         "api",
		MinLimit:     1,
		MaxLimit:     3,
		InitialLimit: 3,
		QueueLength:  -1,
	})
	testutil.AssertNoError(t, err)

	tokens := make([]*limit.Token, 0, 3)
	for i := 0; i < 3; i++ {
		tok, err := lim.TryAcquire(context.Background())
		testutil.AssertNoError(t, err)
		tokens = append(tokens, tok)
	}

	if _, err := lim.TryAcquire(context.Background()); !gaerrors.IsRejection(err) {
		t.Fatalf("expected rejection at ceiling, got %v", err)
	}

	for _, tok := range tokens {
		tok.Success()
	}
}

func TestConcurrentOutcomes(t *testing.T) {
	lim, err := New(Config{
		Name:         "api",
		MinLimit:     1,
		MaxLimit:     200,
		InitialLimit: 50,
		QueueLength:  100,
		QueueTimeout: 5 * time.Second,
	})
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lim.Invoke(context.Background(), func() error {
				if i%10 == 0 {
					return errors.New("boom")
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	got := lim.CurrentLimit()
	if got < 1 || got > 200 {
		t.Errorf("ceiling %d outside [1, 200]", got)
	}
	testutil.AssertEqual(t, lim.Outstanding(), 0)
	testutil.AssertEqual(t, lim.Queued(), 0)
}
