package simulation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Predefined contention patterns, mirroring the knobs a custom run exposes.
var scenarios = map[string]Config{
	"balanced": {
		Scenario: "balanced", NumProducers: 2, NumConsumers: 2,
		Capacity: 5, ItemsPerProducer: 10,
		ProducerDelay: 100 * time.Millisecond, ConsumerDelay: 100 * time.Millisecond,
	},
	"fast-producer": {
		Scenario: "fast-producer", NumProducers: 2, NumConsumers: 1,
		Capacity: 3, ItemsPerProducer: 10,
		ProducerDelay: 10 * time.Millisecond, ConsumerDelay: 200 * time.Millisecond,
	},
	"fast-consumer": {
		Scenario: "fast-consumer", NumProducers: 1, NumConsumers: 2,
		Capacity: 3, ItemsPerProducer: 10,
		ProducerDelay: 200 * time.Millisecond, ConsumerDelay: 10 * time.Millisecond,
	},
	"many-producers-few-consumers": {
		Scenario: "many-producers-few-consumers", NumProducers: 5, NumConsumers: 1,
		Capacity: 5, ItemsPerProducer: 10,
		ProducerDelay: 50 * time.Millisecond, ConsumerDelay: 100 * time.Millisecond,
	},
	"high-contention": {
		Scenario: "high-contention", NumProducers: 3, NumConsumers: 3,
		Capacity: 1, ItemsPerProducer: 20,
		ProducerDelay: 50 * time.Millisecond, ConsumerDelay: 50 * time.Millisecond,
	},
}

var scenarioDescriptions = map[string]string{
	"balanced":                     "Producers and consumers at similar speeds. Queue fluctuates but is rarely full or empty.",
	"fast-producer":                "Fast producers, slow consumer. Demonstrates backpressure: producers frequently block on a full queue.",
	"fast-consumer":                "Slow producer, fast consumers. Demonstrates wait-on-empty: consumers frequently block waiting for items.",
	"many-producers-few-consumers": "Five producers against a single consumer. Stresses synchronization and fairness.",
	"high-contention":              "Capacity 1 forces maximum context switching. Every put/take wakes another goroutine.",
}

// Scenario looks up a predefined configuration by name.
func Scenario(name string) (Config, error) {
	cfg, ok := scenarios[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown scenario %q, available: %s", name, strings.Join(ScenarioNames(), ", "))
	}
	return cfg, nil
}

// ScenarioNames returns every predefined scenario name, sorted.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders a human-readable table of the predefined scenarios.
func Describe() string {
	var sb strings.Builder
	sb.WriteString("Available scenarios:\n\n")
	for _, name := range ScenarioNames() {
		cfg := scenarios[name]
		fmt.Fprintf(&sb, "  %s:\n", name)
		fmt.Fprintf(&sb, "    %s\n", scenarioDescriptions[name])
		fmt.Fprintf(&sb, "    Config: %dP/%dC, capacity=%d, items per producer=%d\n",
			cfg.NumProducers, cfg.NumConsumers, cfg.Capacity, cfg.ItemsPerProducer)
		fmt.Fprintf(&sb, "    Delays: producer=%s, consumer=%s\n\n",
			cfg.ProducerDelay, cfg.ConsumerDelay)
	}
	return sb.String()
}
