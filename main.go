package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tjarratt/babble"

	"github.com/concurrency-lab/prodcon/chart"
	"github.com/concurrency-lab/prodcon/simulation"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	scenario := flag.String("scenario", "", "run a predefined scenario (see -list)")
	producers := flag.Int("producers", 2, "number of producers")
	consumers := flag.Int("consumers", 2, "number of consumers")
	capacity := flag.Int("capacity", 5, "queue capacity")
	items := flag.Int("items", 10, "items per producer")
	producerDelay := flag.Duration("producer-delay", 100*time.Millisecond, "sleep before each put attempt")
	consumerDelay := flag.Duration("consumer-delay", 100*time.Millisecond, "sleep before each take attempt")
	pollTimeout := flag.Duration("poll-timeout", time.Second, "consumer poll interval for cancellation checks")
	verbose := flag.Bool("verbose", false, "log every produce/consume event")
	useBabble := flag.Bool("babble", false, "fill item payloads with random dictionary words")
	plotFile := flag.String("plot", "", "write a queue depth chart to this PNG file")
	list := flag.Bool("list", false, "list predefined scenarios and exit")

	flag.Parse()

	if *list {
		fmt.Print(simulation.Describe())
		return
	}

	var cfg simulation.Config
	if *scenario != "" {
		preset, err := simulation.Scenario(*scenario)
		if err != nil {
			log.Error().Err(err).Msg("cannot select scenario")
			fmt.Print(simulation.Describe())
			os.Exit(1)
		}
		cfg = preset
		cfg.PollTimeout = *pollTimeout
	} else {
		cfg = simulation.Config{
			Scenario:         "custom",
			NumProducers:     *producers,
			NumConsumers:     *consumers,
			Capacity:         *capacity,
			ItemsPerProducer: *items,
			ProducerDelay:    *producerDelay,
			ConsumerDelay:    *consumerDelay,
			PollTimeout:      *pollTimeout,
		}
	}

	if *verbose {
		cfg.Verbose = true
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *useBabble {
		babbler := babble.NewBabbler()
		babbler.Count = 2
		babbler.Separator = " "
		cfg.Payload = func(producer, seq int) string {
			return babbler.Babble()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := simulation.New(cfg).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("simulation could not run")
	}

	fmt.Print(result.Summary())

	if *plotFile != "" {
		if err := chart.QueueDepth(result, *plotFile); err != nil {
			log.Err(err).Msg("cannot write queue depth chart")
		} else {
			log.Info().Str("file", *plotFile).Msg("queue depth chart written")
		}
	}

	if !result.Success() {
		os.Exit(1)
	}
}
