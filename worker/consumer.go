package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/concurrency-lab/prodcon/buffer"
)

// Consumer takes items from the shared buffer into its own destination slice
// until the buffer is closed and drained, counting how many times it found
// the buffer empty. The destination is private to the consumer; the
// orchestrator merges destinations after joining every consumer.
type Consumer struct {
	ID        string
	buf       *buffer.BoundedBuffer[Item]
	delay     time.Duration
	pollEvery time.Duration
	verbose   bool

	Dest     []Item
	Consumed int
	Waits    int
	Err      error

	started  time.Time
	finished time.Time
}

func NewConsumer(id string, buf *buffer.BoundedBuffer[Item], delay, pollEvery time.Duration, verbose bool) *Consumer {
	if pollEvery <= 0 {
		pollEvery = time.Second
	}
	return &Consumer{
		ID:        id,
		buf:       buf,
		delay:     delay,
		pollEvery: pollEvery,
		verbose:   verbose,
	}
}

// Run loops over Poll until the buffer reports closed-and-drained. The poll
// interval bounds how long an external cancellation goes unnoticed; absent a
// cancel, a timed-out poll simply retries and correctness never depends on
// the timer.
func (c *Consumer) Run(ctx context.Context) {
	c.started = time.Now()
	defer func() {
		c.finished = time.Now()
		if c.verbose {
			log.Debug().
				Str("consumer", c.ID).
				Int("consumed", c.Consumed).
				Int("waits", c.Waits).
				Dur("took", c.finished.Sub(c.started)).
				Msg("consumer finished")
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			c.Err = fmt.Errorf("consumer %s: cancelled before drain: %w", c.ID, err)
			return
		}

		if c.delay > 0 {
			time.Sleep(c.delay)
		}

		if c.buf.IsEmpty() && !c.buf.IsClosed() {
			c.Waits++
			if c.verbose {
				log.Debug().Str("consumer", c.ID).Msg("queue empty, waiting")
			}
		}

		item, ok, timedOut := c.buf.Poll(c.pollEvery)
		if timedOut {
			continue
		}
		if !ok {
			// Closed and drained: the clean exit path.
			return
		}

		c.Dest = append(c.Dest, item)
		c.Consumed++

		if c.verbose {
			log.Debug().
				Str("consumer", c.ID).
				Str("item", item.ID).
				Int("depth", c.buf.Size()).
				Int("capacity", c.buf.Capacity()).
				Msg("consumed")
		}
	}
}

// ConsumerStats is the read-only summary exposed to the orchestrator after join.
type ConsumerStats struct {
	ID       string
	Consumed int
	Waits    int
	Took     time.Duration
}

func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		ID:       c.ID,
		Consumed: c.Consumed,
		Waits:    c.Waits,
		Took:     c.finished.Sub(c.started),
	}
}
