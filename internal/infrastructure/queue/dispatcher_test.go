package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/core/ports"
)

type recordingResolver struct {
	mu   sync.Mutex
	jobs []ports.NameResolutionJob
	err  error
}

func (r *recordingResolver) Resolve(_ context.Context, job ports.NameResolutionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return r.err
}

func (r *recordingResolver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcher_ProcessesJobs(t *testing.T) {
	resolver := &recordingResolver{}
	var failures int
	var mu sync.Mutex
	d := NewDispatcher(3, resolver, zerolog.Nop(), WithObserver(func(err error) {
		if err != nil {
			mu.Lock()
			failures++
			mu.Unlock()
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for _, addr := range []string{"0xaaa", "0xbbb", "0xccc", "0xddd"} {
		d.Enqueue(ports.NameResolutionJob{UserID: "u", Address: addr})
	}
	waitFor(t, func() bool { return resolver.count() == 4 })

	cancel()
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	if failures != 0 {
		t.Fatalf("failures = %d, want 0", failures)
	}
}

func TestDispatcher_ReportsFailures(t *testing.T) {
	resolver := &recordingResolver{err: errors.New("rpc down")}
	done := make(chan error, 1)
	d := NewDispatcher(1, resolver, zerolog.Nop(), WithObserver(func(err error) { done <- err }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.NameResolutionJob{UserID: "u", Address: "0xaaa"})
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected resolver error to reach observer")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never processed")
	}
}

func TestShardIndex_CaseInsensitive(t *testing.T) {
	d := NewDispatcher(8, &recordingResolver{}, zerolog.Nop())
	if d.shardIndex("0xABCDEF") != d.shardIndex("0xabcdef") {
		t.Fatal("address casing must not change the shard")
	}
}

func TestEnqueue_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, &recordingResolver{}, zerolog.Nop())
	for i := 0; i < channelBuffer+10; i++ {
		d.Enqueue(ports.NameResolutionJob{Address: "0xaaa"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("buffered = %d, want %d", got, channelBuffer)
	}
}
