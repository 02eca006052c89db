package distributed

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goadmit/goadmit/internal/testutil"
	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/limit"
)

func testClient() redis.UniversalClient {
	// Construction never dials, so validation tests need no server.
	return redis.NewClient(&redis.Options{Addr: "localhost:6379"})
}

func TestNew(t *testing.T) {
	client := testClient()
	defer client.Close()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Name: "api", Redis: client, Key: "t:api", Amount: 10, Period: time.Second}, false},
		{"nil redis", Config{Name: "api", Key: "t:api", Amount: 10, Period: time.Second}, true},
		{"empty key", Config{Name: "api", Redis: client, Amount: 10, Period: time.Second}, true},
		{"zero amount", Config{Name: "api", Redis: client, Key: "t:api", Period: time.Second}, true},
		{"missing period", Config{Name: "api", Redis: client, Key: "t:api", Amount: 10}, true},
		{"amount beyond resolution", Config{Name: "api", Redis: client, Key: "t:api", Amount: 2_000_000, Period: time.Second}, true},
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
			testutil.AssertEqual(t, lim.Type(), limit.TypeThroughput)
			testutil.AssertEqual(t, lim.CurrentLimit(), 10)
		})
	}
}

func TestDefaults(t *testing.T) {
	client := testClient()
	defer client.Close()

	lim, err := New(Config{Name: "api", Redis: client, Key: "t:api", Amount: 10, Period: time.Second})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, lim.queueLength, DefaultQueueLength)
	testutil.AssertEqual(t, lim.queueTimeout, DefaultQueueTimeout)
	testutil.AssertEqual(t, lim.redisTimeout, DefaultRedisTimeout)
	testutil.AssertEqual(t, lim.keyTTL, DefaultKeyTTL)
	testutil.AssertEqual(t, lim.microsPerToken, int64(100_000))
}
