package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

type funcNotifier func(ctx context.Context, lead leads.Lead) error

func (f funcNotifier) NotifyLead(ctx context.Context, lead leads.Lead) error {
	return f(ctx, lead)
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	var mu sync.Mutex
	var got []string
	d := NewDispatcher(funcNotifier(func(_ context.Context, lead leads.Lead) error {
		mu.Lock()
		got = append(got, lead.ID)
		mu.Unlock()
		return nil
	}), logging.New("error"), WithWorkers(1))

	assert.True(t, d.Enqueue(leads.Lead{ID: "lead_a"}))
	assert.True(t, d.Enqueue(leads.Lead{ID: "lead_b"}))
	d.Close()

	assert.Equal(t, []string{"lead_a", "lead_b"}, got)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	d := NewDispatcher(funcNotifier(func(context.Context, leads.Lead) error {
		started <- struct{}{}
		<-release
		return nil
	}), logging.New("error"), WithWorkers(1), WithQueueSize(1))

	require.True(t, d.Enqueue(leads.Lead{ID: "in-flight"}))
	<-started
	require.True(t, d.Enqueue(leads.Lead{ID: "queued"}))

	done := make(chan bool)
	go func() { done <- d.Enqueue(leads.Lead{ID: "dropped"}) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(release)
	d.Close()
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	calls := 0
	d := NewDispatcher(funcNotifier(func(context.Context, leads.Lead) error {
		calls++
		return errors.New("endpoint unreachable")
	}), logging.New("error"), WithWorkers(1))

	d.Enqueue(leads.Lead{ID: "lead_x"})
	d.Close()
	assert.Equal(t, 1, calls)
}

func TestDispatcher_DeliveryHasDeadline(t *testing.T) {
	var deadlineSet bool
	d := NewDispatcher(funcNotifier(func(ctx context.Context, _ leads.Lead) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	}), logging.New("error"), WithWorkers(1), WithDeliveryTimeout(time.Second))

	d.Enqueue(leads.Lead{ID: "lead_y"})
	d.Close()
	assert.True(t, deadlineSet)
}

func TestDispatcher_EnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(funcNotifier(func(context.Context, leads.Lead) error { return nil }), logging.New("error"))
	d.Close()
	d.Close()
	assert.False(t, d.Enqueue(leads.Lead{ID: "late"}))
}
