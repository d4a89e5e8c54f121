package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeRedeliverer struct {
	mu     sync.Mutex
	calls  []time.Duration
	result int
	err    error
}

func (f *fakeRedeliverer) RedeliverInvites(_ context.Context, olderThan time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, olderThan)
	return f.result, f.err
}

func (f *fakeRedeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRedeliveryRunOnce(t *testing.T) {
	fake := &fakeRedeliverer{result: 3}
	w := NewRedeliveryWorker(fake, nil, time.Minute, 2*time.Minute)

	assert.Equal(t, 3, w.RunOnce(context.Background()))
	assert.Equal(t, []time.Duration{2 * time.Minute}, fake.calls)

	fake.err = errors.New("database down")
	assert.Zero(t, w.RunOnce(context.Background()))
}

func TestRedeliveryWorkerTicksUntilCancel(t *testing.T) {
	fake := &fakeRedeliverer{}
	w := NewRedeliveryWorker(fake, nil, time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return fake.count() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
