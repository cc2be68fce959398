package simulation

import (
	"fmt"
	"time"
)

// PayloadFunc fills in the Data field of generated items. Payloads carry no
// correctness semantics; identifiers do.
type PayloadFunc func(producer, seq int) string

func defaultPayload(producer, seq int) string {
	return fmt.Sprintf("item %d from producer %d", seq, producer)
}

// Config parameterizes one simulation run. Delays are pure scheduling hints
// (a sleep before each put/take attempt) used to shape contention; they
// carry no correctness semantics.
type Config struct {
	Scenario         string
	NumProducers     int
	NumConsumers     int
	Capacity         int
	ItemsPerProducer int
	ProducerDelay    time.Duration
	ConsumerDelay    time.Duration
	// PollTimeout bounds each consumer poll so external cancellation is
	// noticed; defaults to one second.
	PollTimeout time.Duration
	Verbose     bool
	Payload     PayloadFunc
}

// Validate fails fast, before any goroutine starts.
func (c Config) Validate() error {
	if c.NumProducers < 1 {
		return fmt.Errorf("num producers must be at least 1, got %d", c.NumProducers)
	}
	if c.NumConsumers < 1 {
		return fmt.Errorf("num consumers must be at least 1, got %d", c.NumConsumers)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	if c.ItemsPerProducer < 0 {
		return fmt.Errorf("items per producer must not be negative, got %d", c.ItemsPerProducer)
	}
	if c.ProducerDelay < 0 || c.ConsumerDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Scenario == "" {
		c.Scenario = "custom"
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	if c.Payload == nil {
		c.Payload = defaultPayload
	}
	return c
}
