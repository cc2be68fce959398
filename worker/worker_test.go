package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concurrency-lab/prodcon/buffer"
)

func makeSource(p, n int) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, NewItem(p, i, fmt.Sprintf("item %d from producer %d", i, p)))
	}
	return items
}

func TestProducerProducesEverythingOnce(t *testing.T) {
	buf, err := buffer.New[Item](3)
	require.NoError(t, err)

	producer := NewProducer("P0", makeSource(0, 10), buf, 0, false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		producer.Run()
	}()

	consumed := []Item{}
	for len(consumed) < 10 {
		item, ok := buf.Take()
		require.True(t, ok)
		consumed = append(consumed, item)
	}
	wg.Wait()

	require.NoError(t, producer.Err)
	assert.Equal(t, 10, producer.Produced)
	assert.Equal(t, 10, producer.Stats().Expected)
	for i, item := range consumed {
		assert.Equal(t, i, item.Seq, "single producer items keep their order")
		assert.Equal(t, "P0", item.Producer)
	}
}

func TestProducerCountsBackpressure(t *testing.T) {
	buf, err := buffer.New[Item](1)
	require.NoError(t, err)

	producer := NewProducer("P0", makeSource(0, 5), buf, 0, false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		producer.Run()
	}()

	// Slow consumer so the capacity-1 buffer stays full between takes.
	taken := 0
	for taken < 5 {
		time.Sleep(20 * time.Millisecond)
		_, ok := buf.Take()
		require.True(t, ok)
		taken++
	}
	wg.Wait()

	require.NoError(t, producer.Err)
	assert.GreaterOrEqual(t, producer.Blocks, 1, "producer must have observed a full buffer")
}

func TestProducerTreatsClosedBufferAsFault(t *testing.T) {
	buf, err := buffer.New[Item](2)
	require.NoError(t, err)
	buf.Close()

	producer := NewProducer("P0", makeSource(0, 3), buf, 0, false)
	producer.Run()

	require.Error(t, producer.Err)
	assert.ErrorIs(t, producer.Err, buffer.ErrClosed)
	assert.Equal(t, 0, producer.Produced, "no item may be counted after the fault")
}

func TestConsumerDrainsUntilClosed(t *testing.T) {
	buf, err := buffer.New[Item](4)
	require.NoError(t, err)

	source := makeSource(0, 8)
	for _, item := range source[:4] {
		require.NoError(t, buf.Put(item))
	}
	consumer := NewConsumer("C0", buf, 0, 50*time.Millisecond, false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(context.Background())
	}()

	// The rest goes in while the consumer is draining.
	for _, item := range source[4:] {
		require.NoError(t, buf.Put(item))
	}
	buf.Close()
	wg.Wait()

	require.NoError(t, consumer.Err)
	assert.Equal(t, len(source), consumer.Consumed)
	assert.Len(t, consumer.Dest, len(source))
}

func TestConsumerCountsWaits(t *testing.T) {
	buf, err := buffer.New[Item](2)
	require.NoError(t, err)

	consumer := NewConsumer("C0", buf, 0, 20*time.Millisecond, false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(context.Background())
	}()

	// Leave the buffer empty for a while before feeding it.
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, buf.Put(NewItem(0, 0, "late item")))
	buf.Close()
	wg.Wait()

	require.NoError(t, consumer.Err)
	assert.Equal(t, 1, consumer.Consumed)
	assert.GreaterOrEqual(t, consumer.Waits, 1, "consumer must have observed an empty buffer")
}

func TestConsumerHonorsCancellation(t *testing.T) {
	buf, err := buffer.New[Item](1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	consumer := NewConsumer("C0", buf, 0, 10*time.Millisecond, false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled consumer did not exit within its poll interval")
	}
	require.Error(t, consumer.Err)
	assert.ErrorIs(t, consumer.Err, context.Canceled)
}

func TestPerProducerFIFOThroughOneConsumer(t *testing.T) {
	buf, err := buffer.New[Item](3)
	require.NoError(t, err)

	producers := []*Producer{
		NewProducer("P0", makeSource(0, 30), buf, time.Millisecond, false),
		NewProducer("P1", makeSource(1, 30), buf, time.Millisecond, false),
	}
	consumer := NewConsumer("C0", buf, 0, 50*time.Millisecond, false)

	var producerWg, consumerWg sync.WaitGroup
	for _, p := range producers {
		producerWg.Add(1)
		go func(p *Producer) {
			defer producerWg.Done()
			p.Run()
		}(p)
	}
	consumerWg.Add(1)
	go func() {
		defer consumerWg.Done()
		consumer.Run(context.Background())
	}()

	producerWg.Wait()
	buf.Close()
	consumerWg.Wait()

	require.NoError(t, consumer.Err)
	require.Len(t, consumer.Dest, 60)

	// No global interleaving is promised, but each producer's items must
	// appear in their original relative order.
	for _, tag := range []string{"P0", "P1"} {
		next := 0
		for _, item := range consumer.Dest {
			if item.Producer != tag {
				continue
			}
			assert.Equal(t, next, item.Seq, "producer %s items out of order", tag)
			next++
		}
		assert.Equal(t, 30, next, "producer %s items missing", tag)
	}
}
