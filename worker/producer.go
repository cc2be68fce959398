package worker

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/concurrency-lab/prodcon/buffer"
)

// Producer drains a finite source slice into the shared buffer, counting how
// many times it ran into backpressure. Run executes exactly once; counters
// must only be read after Run has returned.
type Producer struct {
	ID      string
	source  []Item
	buf     *buffer.BoundedBuffer[Item]
	delay   time.Duration
	verbose bool

	Produced int
	Blocks   int
	Err      error

	started  time.Time
	finished time.Time
}

func NewProducer(id string, source []Item, buf *buffer.BoundedBuffer[Item], delay time.Duration, verbose bool) *Producer {
	return &Producer{
		ID:      id,
		source:  source,
		buf:     buf,
		delay:   delay,
		verbose: verbose,
	}
}

// Run pushes every source item into the buffer in order. An ErrClosed from
// Put is a coordination fault (the orchestrator closes the buffer only after
// all producers are done) and aborts the loop with Err set.
func (p *Producer) Run() {
	p.started = time.Now()
	defer func() {
		p.finished = time.Now()
		if p.verbose {
			log.Debug().
				Str("producer", p.ID).
				Int("produced", p.Produced).
				Int("blocks", p.Blocks).
				Dur("took", p.finished.Sub(p.started)).
				Msg("producer finished")
		}
	}()

	for _, item := range p.source {
		if p.delay > 0 {
			time.Sleep(p.delay)
		}

		// Detect-and-count backpressure before the blocking attempt. The
		// snapshot can race with a concurrent Take, so the count is a
		// lower-bound style observation, which is all the report needs.
		if p.buf.IsFull() {
			p.Blocks++
			if p.verbose {
				log.Debug().Str("producer", p.ID).Msg("queue full, waiting")
			}
		}

		if err := p.buf.Put(item); err != nil {
			p.Err = fmt.Errorf("producer %s: put item %s: %w", p.ID, item.ID, err)
			return
		}
		p.Produced++

		if p.verbose {
			log.Debug().
				Str("producer", p.ID).
				Str("item", item.ID).
				Int("depth", p.buf.Size()).
				Int("capacity", p.buf.Capacity()).
				Msg("produced")
		}
	}
}

// ProducerStats is the read-only summary exposed to the orchestrator after join.
type ProducerStats struct {
	ID       string
	Produced int
	Blocks   int
	Expected int
	Took     time.Duration
}

func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		ID:       p.ID,
		Produced: p.Produced,
		Blocks:   p.Blocks,
		Expected: len(p.source),
		Took:     p.finished.Sub(p.started),
	}
}
