// Package simulation orchestrates producer/consumer runs over one shared
// bounded buffer: it builds the buffer, spawns the workers, joins them in
// the load-bearing order (producers, then close, then consumers) and
// verifies that the multiset of consumed item identifiers equals the
// multiset of produced ones.
package simulation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog/log"

	"github.com/concurrency-lab/prodcon/buffer"
	"github.com/concurrency-lab/prodcon/utils"
	"github.com/concurrency-lab/prodcon/worker"
)

// State is the orchestrator's lifecycle phase.
type State string

const (
	StateConfigured State = "CONFIGURED"
	StateRunning    State = "RUNNING"
	StateDraining   State = "DRAINING"
	StateVerified   State = "VERIFIED"
	StateFailed     State = "FAILED"
)

type trigger string

const (
	triggerStart  trigger = "start"
	triggerDrain  trigger = "drain"
	triggerVerify trigger = "verify"
	triggerFail   trigger = "fail"
)

// samplePeriod paces the background queue-depth sampler.
const samplePeriod = 5 * time.Millisecond

// Simulation runs one configured producer/consumer scenario to completion.
// A Simulation executes exactly once; create a new one per run.
type Simulation struct {
	cfg Config
	fsm *stateless.StateMachine

	buf       *buffer.BoundedBuffer[worker.Item]
	producers []*worker.Producer
	consumers []*worker.Consumer
	produced  [][]worker.Item
	timeline  []DepthSample
}

// New creates a Simulation in the CONFIGURED state.
func New(cfg Config) *Simulation {
	s := &Simulation{cfg: cfg.withDefaults()}

	s.fsm = stateless.NewStateMachine(StateConfigured)
	s.fsm.Configure(StateConfigured).
		Permit(triggerStart, StateRunning)
	s.fsm.Configure(StateRunning).
		OnEntry(s.logTransition).
		Permit(triggerDrain, StateDraining)
	s.fsm.Configure(StateDraining).
		OnEntry(s.logTransition).
		Permit(triggerVerify, StateVerified).
		Permit(triggerFail, StateFailed)
	s.fsm.Configure(StateVerified).
		OnEntry(s.logTransition)
	s.fsm.Configure(StateFailed).
		OnEntry(s.logTransition)
	return s
}

// State reports the orchestrator's current lifecycle phase.
func (s *Simulation) State() State {
	return s.fsm.MustState().(State)
}

func (s *Simulation) logTransition(ctx context.Context, _ ...any) error {
	transition := stateless.GetTransition(ctx)
	log.Info().
		Str("scenario", s.cfg.Scenario).
		Str("state", string(transition.Destination.(State))).
		Msg("simulation state change")
	return nil
}

// Run executes the scenario and blocks until it is verified or failed.
// Cancelling ctx closes the buffer early, which releases every blocked
// worker cooperatively; the run then reports FAILURE.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	buf, err := buffer.New[worker.Item](s.cfg.Capacity)
	if err != nil {
		return nil, err
	}
	s.buf = buf

	if err := s.fsm.Fire(triggerStart); err != nil {
		return nil, fmt.Errorf("simulation ran already: %w", err)
	}
	startedAt := time.Now()

	for p := 0; p < s.cfg.NumProducers; p++ {
		source := s.generateSource(p)
		s.produced = append(s.produced, source)
		s.producers = append(s.producers,
			worker.NewProducer(fmt.Sprintf("P%d", p), source, buf, s.cfg.ProducerDelay, s.cfg.Verbose))
	}
	for c := 0; c < s.cfg.NumConsumers; c++ {
		s.consumers = append(s.consumers,
			worker.NewConsumer(fmt.Sprintf("C%d", c), buf, s.cfg.ConsumerDelay, s.cfg.PollTimeout, s.cfg.Verbose))
	}

	var producerWg, consumerWg sync.WaitGroup
	for _, p := range s.producers {
		producerWg.Add(1)
		go func(p *worker.Producer) {
			defer producerWg.Done()
			p.Run()
		}(p)
	}
	for _, c := range s.consumers {
		consumerWg.Add(1)
		go func(c *worker.Consumer) {
			defer consumerWg.Done()
			c.Run(ctx)
		}(c)
	}

	samplerStop := make(chan struct{})
	samplerDone := make(chan struct{})
	go s.sampleDepth(startedAt, samplerStop, samplerDone)

	// Close() is the only cancellation path the workers understand, so an
	// abandoned ctx is translated into an early close. Producers then fail
	// their next Put and the run reports the fault.
	watcherStop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			buf.Close()
		case <-watcherStop:
		}
	}()

	producerWg.Wait()

	// Close only after every producer has finished: closing earlier would
	// reject legitimate in-flight puts, never closing would leave blocked
	// consumers stuck after the last take.
	_ = s.fsm.Fire(triggerDrain)
	buf.Close()

	consumerWg.Wait()
	close(watcherStop)
	close(samplerStop)
	<-samplerDone

	result := s.buildResult(ctx, startedAt)
	if result.Success() {
		_ = s.fsm.Fire(triggerVerify)
	} else {
		_ = s.fsm.Fire(triggerFail)
	}
	return result, nil
}

func (s *Simulation) generateSource(p int) []worker.Item {
	items := make([]worker.Item, 0, s.cfg.ItemsPerProducer)
	for i := 0; i < s.cfg.ItemsPerProducer; i++ {
		items = append(items, worker.NewItem(p, i, s.cfg.Payload(p, i)))
	}
	return items
}

// sampleDepth polls the buffer's size on a ticker to build the depth
// timeline. The timeline slice is written only here and read only after
// done is closed.
func (s *Simulation) sampleDepth(startedAt time.Time, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(samplePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.timeline = append(s.timeline, DepthSample{
				Offset: time.Since(startedAt),
				Depth:  s.buf.Size(),
			})
		case <-stop:
			return
		}
	}
}

func (s *Simulation) buildResult(ctx context.Context, startedAt time.Time) *Result {
	finishedAt := time.Now()
	elapsed := finishedAt.Sub(startedAt)

	producedItems := []worker.Item{}
	utils.ForEach(s.produced, func(source []worker.Item) {
		producedItems = append(producedItems, source...)
	})
	consumedItems := []worker.Item{}
	utils.ForEach(s.consumers, func(c *worker.Consumer) {
		consumedItems = append(consumedItems, c.Dest...)
	})

	producedIDs := utils.Map(producedItems, func(it worker.Item) string { return it.ID })
	consumedIDs := utils.Map(consumedItems, func(it worker.Item) string { return it.ID })

	producedSet := make(map[string]struct{}, len(producedIDs))
	for _, id := range producedIDs {
		producedSet[id] = struct{}{}
	}
	consumedCount := make(map[string]int, len(consumedIDs))
	for _, id := range consumedIDs {
		consumedCount[id]++
	}

	lost := utils.Filter(producedIDs, func(id string) bool { return consumedCount[id] == 0 })
	duplicates := []string{}
	unexpected := []string{}
	for id, n := range consumedCount {
		if _, ok := producedSet[id]; !ok {
			unexpected = append(unexpected, id)
			continue
		}
		if n > 1 {
			duplicates = append(duplicates, id)
		}
	}
	sort.Strings(lost)
	sort.Strings(duplicates)
	sort.Strings(unexpected)

	errs := []string{}
	utils.ForEach(s.producers, func(p *worker.Producer) {
		if p.Err != nil {
			errs = append(errs, p.Err.Error())
		}
	})
	utils.ForEach(s.consumers, func(c *worker.Consumer) {
		if c.Err != nil {
			errs = append(errs, c.Err.Error())
		}
	})
	if len(unexpected) > 0 {
		errs = append(errs, fmt.Sprintf("%d items consumed but never produced", len(unexpected)))
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Sprintf("run cancelled: %v", err))
	}

	totalProduced := utils.Reduce(s.producers, 0, func(acc int, p *worker.Producer) int { return acc + p.Produced })
	totalConsumed := utils.Reduce(s.consumers, 0, func(acc int, c *worker.Consumer) int { return acc + c.Consumed })
	expected := s.cfg.NumProducers * s.cfg.ItemsPerProducer

	status := StatusFailure
	if totalProduced == expected && totalConsumed == expected &&
		len(lost) == 0 && len(duplicates) == 0 && len(errs) == 0 {
		status = StatusSuccess
	}

	stats := s.buf.Stats()
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(totalConsumed) / elapsed.Seconds()
	}

	return &Result{
		RunID:          uuid.New().String(),
		Scenario:       s.cfg.Scenario,
		Config:         s.cfg,
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		Elapsed:        elapsed,
		TotalProduced:  totalProduced,
		TotalConsumed:  totalConsumed,
		ExpectedTotal:  expected,
		ProducedItems:  producedItems,
		ConsumedItems:  consumedItems,
		LostIDs:        lost,
		DuplicateIDs:   duplicates,
		UnexpectedIDs:  unexpected,
		MaxQueueDepth:  stats.MaxDepth,
		FinalQueueSize: stats.CurrentSize,
		Throughput:     throughput,
		Producers:      utils.Map(s.producers, func(p *worker.Producer) worker.ProducerStats { return p.Stats() }),
		Consumers:      utils.Map(s.consumers, func(c *worker.Consumer) worker.ConsumerStats { return c.Stats() }),
		Timeline:       s.timeline,
		Errors:         errs,
		Status:         status,
	}
}
