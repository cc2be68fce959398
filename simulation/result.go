package simulation

import (
	"fmt"
	"strings"
	"time"

	"github.com/concurrency-lab/prodcon/utils"
	"github.com/concurrency-lab/prodcon/worker"
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// DepthSample is one queue-depth observation taken by the background
// sampler. Sampling is racy by nature, so the timeline is approximate;
// MaxQueueDepth comes from the buffer's own exact high-water mark.
type DepthSample struct {
	Offset time.Duration
	Depth  int
}

// Result is the immutable summary of one finished run.
type Result struct {
	RunID    string
	Scenario string
	Config   Config

	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration

	TotalProduced int
	TotalConsumed int
	ExpectedTotal int

	// ProducedItems is every generated item; ConsumedItems is the merge of
	// all consumer destinations, ordered per consumer. Neither implies a
	// global cross-producer order.
	ProducedItems []worker.Item
	ConsumedItems []worker.Item

	LostIDs      []string
	DuplicateIDs []string
	// UnexpectedIDs were consumed but never produced; always empty unless
	// the buffer itself is broken.
	UnexpectedIDs []string

	MaxQueueDepth  int
	FinalQueueSize int
	Throughput     float64

	Producers []worker.ProducerStats
	Consumers []worker.ConsumerStats
	Timeline  []DepthSample

	Errors []string
	Status Status
}

// Success reports whether the run verified cleanly: every produced item was
// consumed exactly once and no worker faulted.
func (r *Result) Success() bool {
	return r.Status == StatusSuccess
}

// Summary renders the human-readable report consumed by the CLI.
func (r *Result) Summary() string {
	var sb strings.Builder
	bar := strings.Repeat("=", 70)

	fmt.Fprintf(&sb, "\n%s\n", bar)
	fmt.Fprintf(&sb, "Scenario: %s (run %s)\n", r.Scenario, r.RunID)
	fmt.Fprintf(&sb, "%s\n\n", bar)

	sb.WriteString("Configuration:\n")
	fmt.Fprintf(&sb, "  Producers: %d, Consumers: %d\n", r.Config.NumProducers, r.Config.NumConsumers)
	fmt.Fprintf(&sb, "  Queue capacity: %d\n", r.Config.Capacity)
	fmt.Fprintf(&sb, "  Items per producer: %d\n", r.Config.ItemsPerProducer)
	fmt.Fprintf(&sb, "  Producer delay: %s, Consumer delay: %s\n\n", r.Config.ProducerDelay, r.Config.ConsumerDelay)

	sb.WriteString("Results:\n")
	fmt.Fprintf(&sb, "  Total produced: %d/%d\n", r.TotalProduced, r.ExpectedTotal)
	fmt.Fprintf(&sb, "  Total consumed: %d/%d\n", r.TotalConsumed, r.ExpectedTotal)
	fmt.Fprintf(&sb, "  Items lost: %d\n", len(r.LostIDs))
	fmt.Fprintf(&sb, "  Items duplicated: %d\n", len(r.DuplicateIDs))
	fmt.Fprintf(&sb, "  Max queue depth: %d/%d\n", r.MaxQueueDepth, r.Config.Capacity)
	fmt.Fprintf(&sb, "  Simulation time: %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "  Throughput: %.2f items/sec\n", r.Throughput)
	fmt.Fprintf(&sb, "  Status: %s\n\n", r.Status)

	sb.WriteString("Workers:\n")
	utils.ForEach(r.Producers, func(p worker.ProducerStats) {
		fmt.Fprintf(&sb, "  %s: produced %d/%d, blocked %d times, took %s\n",
			p.ID, p.Produced, p.Expected, p.Blocks, p.Took.Round(time.Millisecond))
	})
	utils.ForEach(r.Consumers, func(c worker.ConsumerStats) {
		fmt.Fprintf(&sb, "  %s: consumed %d, waited %d times, took %s\n",
			c.ID, c.Consumed, c.Waits, c.Took.Round(time.Millisecond))
	})

	if len(r.LostIDs) > 0 {
		fmt.Fprintf(&sb, "\nLost ids: %s\n", strings.Join(r.LostIDs, ", "))
	}
	if len(r.DuplicateIDs) > 0 {
		fmt.Fprintf(&sb, "\nDuplicated ids: %s\n", strings.Join(r.DuplicateIDs, ", "))
	}
	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		utils.ForEach(r.Errors, func(e string) {
			fmt.Fprintf(&sb, "  - %s\n", e)
		})
	}

	fmt.Fprintf(&sb, "%s\n", bar)
	return sb.String()
}
