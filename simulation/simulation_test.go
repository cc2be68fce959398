package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concurrency-lab/prodcon/utils"
	"github.com/concurrency-lab/prodcon/worker"
)

func TestConfigValidation(t *testing.T) {
	valid := Config{NumProducers: 1, NumConsumers: 1, Capacity: 1, ItemsPerProducer: 1}
	require.NoError(t, valid.Validate())

	testcases := []struct {
		name string
		cfg  Config
	}{
		{"zero producers", Config{NumProducers: 0, NumConsumers: 1, Capacity: 1}},
		{"zero consumers", Config{NumProducers: 1, NumConsumers: 0, Capacity: 1}},
		{"zero capacity", Config{NumProducers: 1, NumConsumers: 1, Capacity: 0}},
		{"negative items", Config{NumProducers: 1, NumConsumers: 1, Capacity: 1, ItemsPerProducer: -1}},
		{"negative delay", Config{NumProducers: 1, NumConsumers: 1, Capacity: 1, ProducerDelay: -time.Second}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())

			_, err := New(tc.cfg).Run(context.Background())
			assert.Error(t, err, "Run must fail fast on invalid config")
		})
	}
}

func TestScenarioLookup(t *testing.T) {
	for _, name := range ScenarioNames() {
		cfg, err := Scenario(name)
		require.NoError(t, err)
		assert.Equal(t, name, cfg.Scenario)
		assert.NoError(t, cfg.Validate(), "preset %s must be valid", name)
	}

	_, err := Scenario("no-such-scenario")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balanced", "error should list the valid names")

	assert.Contains(t, Describe(), "high-contention")
}

func TestLifecycleStates(t *testing.T) {
	sim := New(Config{NumProducers: 1, NumConsumers: 1, Capacity: 2, ItemsPerProducer: 3, PollTimeout: 20 * time.Millisecond})
	assert.Equal(t, StateConfigured, sim.State())

	result, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateVerified, sim.State())
	assert.Equal(t, StatusSuccess, result.Status)

	_, err = sim.Run(context.Background())
	assert.Error(t, err, "a simulation must execute exactly once")
}

func TestNoLossNoDuplication(t *testing.T) {
	for _, producers := range []int{1, 3, 10} {
		for _, consumers := range []int{1, 3, 10} {
			for _, items := range []int{1, 20, 100} {
				producers, consumers, items := producers, consumers, items
				name := fmt.Sprintf("%dp_%dc_%ditems", producers, consumers, items)
				t.Run(name, func(t *testing.T) {
					t.Parallel()
					sim := New(Config{
						NumProducers:     producers,
						NumConsumers:     consumers,
						Capacity:         3,
						ItemsPerProducer: items,
						PollTimeout:      20 * time.Millisecond,
					})
					result, err := sim.Run(context.Background())
					require.NoError(t, err)

					assert.Equal(t, StatusSuccess, result.Status, "errors: %v", result.Errors)
					assert.Empty(t, result.LostIDs)
					assert.Empty(t, result.DuplicateIDs)
					assert.Empty(t, result.UnexpectedIDs)
					assert.Equal(t, producers*items, result.TotalProduced)
					assert.Equal(t, producers*items, result.TotalConsumed)
					assert.LessOrEqual(t, result.MaxQueueDepth, 3)
					assert.Equal(t, 0, result.FinalQueueSize)
				})
			}
		}
	}
}

// One producer pushing five items with no delay into a capacity-3 buffer,
// against a single slow consumer: the producer must hit backpressure and the
// consumed sequence must come out exactly in production order.
func TestBackpressureScenario(t *testing.T) {
	sim := New(Config{
		NumProducers:     1,
		NumConsumers:     1,
		Capacity:         3,
		ItemsPerProducer: 5,
		ConsumerDelay:    30 * time.Millisecond,
		PollTimeout:      20 * time.Millisecond,
	})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status, "errors: %v", result.Errors)
	require.Len(t, result.Producers, 1)
	assert.GreaterOrEqual(t, result.Producers[0].Blocks, 1, "slow consumer must force the producer to block")

	require.Len(t, result.ConsumedItems, 5)
	seqs := utils.Map(result.ConsumedItems, func(it worker.Item) int { return it.Seq })
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seqs)
}

// Capacity 1 with three producers of twenty items each against three
// consumers: maximum contention, still zero loss and zero duplication, and
// both sides of the backpressure counters must have fired somewhere.
func TestHighContentionScenario(t *testing.T) {
	sim := New(Config{
		NumProducers:     3,
		NumConsumers:     3,
		Capacity:         1,
		ItemsPerProducer: 20,
		ProducerDelay:    time.Millisecond,
		ConsumerDelay:    2 * time.Millisecond,
		PollTimeout:      20 * time.Millisecond,
	})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status, "errors: %v", result.Errors)
	assert.Empty(t, result.LostIDs)
	assert.Empty(t, result.DuplicateIDs)
	assert.Equal(t, 60, result.TotalConsumed)
	assert.Equal(t, 1, result.MaxQueueDepth)

	totalBlocks := utils.Reduce(result.Producers, 0, func(acc int, p worker.ProducerStats) int { return acc + p.Blocks })
	totalWaits := utils.Reduce(result.Consumers, 0, func(acc int, c worker.ConsumerStats) int { return acc + c.Waits })
	assert.Greater(t, totalBlocks, 0, "capacity 1 must produce backpressure")
	assert.Greater(t, totalWaits, 0, "consumers must have found the buffer empty")
}

func TestZeroItemsRunVerifiesEmpty(t *testing.T) {
	sim := New(Config{
		NumProducers:     2,
		NumConsumers:     2,
		Capacity:         4,
		ItemsPerProducer: 0,
		PollTimeout:      20 * time.Millisecond,
	})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 0, result.TotalProduced)
	assert.Equal(t, 0, result.TotalConsumed)
}

func TestCancellationFailsTheRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sim := New(Config{
		NumProducers:     2,
		NumConsumers:     1,
		Capacity:         1,
		ItemsPerProducer: 1000,
		ProducerDelay:    time.Millisecond,
		ConsumerDelay:    5 * time.Millisecond,
		PollTimeout:      10 * time.Millisecond,
	})

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := sim.Run(ctx)
	require.NoError(t, err, "cancellation is a failed result, not a Run error")
	assert.Equal(t, StatusFailure, result.Status)
	assert.Equal(t, StateFailed, sim.State())
	assert.NotEmpty(t, result.Errors)
}

func TestResultSummary(t *testing.T) {
	sim := New(Config{
		NumProducers:     1,
		NumConsumers:     1,
		Capacity:         2,
		ItemsPerProducer: 4,
		PollTimeout:      20 * time.Millisecond,
	})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	summary := result.Summary()
	assert.Contains(t, summary, "Status: SUCCESS")
	assert.Contains(t, summary, "Total produced: 4/4")
	assert.Contains(t, summary, "Total consumed: 4/4")
	assert.Contains(t, summary, result.RunID)
	assert.Contains(t, summary, "P0:")
	assert.Contains(t, summary, "C0:")
}
