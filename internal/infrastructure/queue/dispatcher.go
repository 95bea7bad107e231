package queue

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes name resolution jobs to a fixed set of workers using
// consistent hashing on the wallet address, so jobs for one address never
// race each other.
type Dispatcher struct {
	workers  []chan ports.NameResolutionJob
	resolver ports.NameResolver
	log      zerolog.Logger
	onDone   func(err error)
	wg       sync.WaitGroup
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers a callback invoked after every processed job.
func WithObserver(fn func(err error)) Option {
	return func(d *Dispatcher) { d.onDone = fn }
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, resolver ports.NameResolver, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.NameResolutionJob, numWorkers),
		resolver: resolver,
		log:      log,
		onDone:   func(error) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.NameResolutionJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a job to the worker responsible for its address. When that
// worker's buffer is full the job is dropped; names are a cosmetic backfill
// and sign-in must never block on them.
func (d *Dispatcher) Enqueue(job ports.NameResolutionJob) {
	select {
	case d.workers[d.shardIndex(job.Address)] <- job:
	default:
		d.log.Warn().
			Str("address", job.Address).
			Str("user_id", job.UserID).
			Msg("name resolution queue full, job dropped")
	}
}

// shardIndex maps an address deterministically to a worker index.
func (d *Dispatcher) shardIndex(address string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(address)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.NameResolutionJob) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			err := d.resolver.Resolve(ctx, job)
			if err != nil {
				d.log.Error().Err(err).
					Str("address", job.Address).
					Str("user_id", job.UserID).
					Int("worker_id", id).
					Msg("name resolution failed")
			}
			d.onDone(err)
		}
	}
}
