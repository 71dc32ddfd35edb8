package chatbot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acegrowth/ace-chatbot/internal/capture"
	"github.com/acegrowth/ace-chatbot/internal/chatflow"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/presenter"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

func ptr[T any](v T) *T { return &v }

type failingStore struct{}

func (failingStore) Append(context.Context, leads.Lead) error   { return errors.New("disk full") }
func (failingStore) List(context.Context) ([]leads.Lead, error) { return nil, errors.New("corrupt") }
func (failingStore) Clear(context.Context) error                { return errors.New("read-only") }

func newTestWidget(store leads.Store) *Widget {
	logger := logging.New("error")
	noon := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	return New(store, capture.NewService(store, nil, nil, logger),
		WithTyping(false),
		WithClock(func() time.Time { return noon }),
		WithLogger(logger),
	)
}

func TestInitialize_MergesOverDefaults(t *testing.T) {
	w := newTestWidget(leads.NewMemoryStore())

	opts, err := w.Initialize(widget.Overrides{
		CompanyName: ptr("Acme Roofing"),
		Services:    []string{"Roofing", "Gutters"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Roofing", opts.CompanyName)
	assert.Equal(t, []string{"Roofing", "Gutters"}, opts.Services)
	assert.Equal(t, "(555) 123-4567", opts.Phone)
	assert.Equal(t, widget.PositionRight, opts.Position)
	assert.True(t, w.Initialized())
}

func TestInitialize_SecondCallKeepsFirstMount(t *testing.T) {
	w := newTestWidget(leads.NewMemoryStore())
	_, err := w.Initialize(widget.Overrides{CompanyName: ptr("First")})
	require.NoError(t, err)

	opts, err := w.Initialize(widget.Overrides{CompanyName: ptr("Second")})

	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, "First", opts.CompanyName)
	current, err := w.Options()
	require.NoError(t, err)
	assert.Equal(t, "First", current.CompanyName)
}

func TestInitialize_RejectsInvalidOptions(t *testing.T) {
	w := newTestWidget(leads.NewMemoryStore())

	_, err := w.Initialize(widget.Overrides{Position: ptr("center")})

	assert.ErrorIs(t, err, widget.ErrInvalidPosition)
	assert.False(t, w.Initialized())
}

func TestNewConversation_RequiresMount(t *testing.T) {
	w := newTestWidget(leads.NewMemoryStore())

	_, err := w.NewConversation(leads.ClientMeta{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = w.Options()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestConversation_CapturesLead(t *testing.T) {
	ctx := context.Background()
	store := leads.NewMemoryStore()
	w := newTestWidget(store)
	_, err := w.Initialize(widget.Overrides{Timezone: ptr("UTC")})
	require.NoError(t, err)

	conv, err := w.NewConversation(leads.ClientMeta{Page: "https://acme.test/"})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID())

	greeting := conv.Start(ctx)
	require.NotEmpty(t, greeting)
	assert.Equal(t, presenter.FrameMessage, greeting[0].Type)
	assert.Zero(t, greeting[0].DelayMS)

	conv.Choose(ctx, chatflow.ChoiceStartEstimate)
	conv.Send(ctx, "Jane Doe")
	conv.Send(ctx, "555-222-9999")
	conv.Send(ctx, "jane@x.com")
	conv.Choose(ctx, chatflow.ServiceChoiceID("Roofing"))
	final := conv.Send(ctx, "skip")

	var html []presenter.Frame
	for _, f := range final {
		if f.HTML {
			html = append(html, f)
		}
	}
	require.Len(t, html, 1)
	assert.Contains(t, html[0].Text, "You're all set, Jane Doe!")

	stored := w.ListLeads(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, "Jane Doe", stored[0].Name)
	assert.Equal(t, "https://acme.test/", stored[0].Page)

	lead, ok := conv.Lead()
	require.True(t, ok)
	assert.Equal(t, stored[0].ID, lead.ID)

	require.NoError(t, w.ClearLeads(ctx))
	assert.Empty(t, w.ListLeads(ctx))
}

func TestConversation_GreetingWaitsWhenTyping(t *testing.T) {
	w := New(leads.NewMemoryStore(), nil, WithLogger(logging.New("error")))
	_, err := w.Initialize(widget.Overrides{})
	require.NoError(t, err)
	conv, err := w.NewConversation(leads.ClientMeta{})
	require.NoError(t, err)

	tl := conv.Start(context.Background())

	require.NotEmpty(t, tl)
	assert.Equal(t, presenter.FrameTyping, tl[0].Type)
	assert.Equal(t, presenter.GreetingDelay.Milliseconds(), tl[0].DelayMS)
	assert.Empty(t, conv.Start(context.Background()))
}

func TestConversation_OpenCloseIdempotent(t *testing.T) {
	w := newTestWidget(leads.NewMemoryStore())
	_, err := w.Initialize(widget.Overrides{})
	require.NoError(t, err)
	conv, err := w.NewConversation(leads.ClientMeta{})
	require.NoError(t, err)
	conv.Start(context.Background())
	conv.Choose(context.Background(), chatflow.ChoiceStartEstimate)

	assert.True(t, conv.Open())
	assert.False(t, conv.Open())
	assert.True(t, conv.Close())
	assert.False(t, conv.Close())

	state := conv.State()
	assert.Equal(t, chatflow.StepGetName, state.Step, "closing never resets the conversation")
	assert.False(t, state.Open)
}

func TestConversation_ConcurrentSends(t *testing.T) {
	w := newTestWidget(leads.NewMemoryStore())
	_, err := w.Initialize(widget.Overrides{})
	require.NoError(t, err)
	conv, err := w.NewConversation(leads.ClientMeta{})
	require.NoError(t, err)
	ctx := context.Background()
	conv.Start(ctx)
	conv.Choose(ctx, chatflow.ChoiceStartEstimate)
	conv.Send(ctx, "Jane")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.Send(ctx, "12")
		}()
	}
	wg.Wait()

	assert.Equal(t, chatflow.StepGetPhoneInput, conv.State().Step)
}

func TestListLeads_StoreFailureIsEmpty(t *testing.T) {
	w := newTestWidget(failingStore{})

	got := w.ListLeads(context.Background())

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Error(t, w.ClearLeads(context.Background()))
}

func TestConversation_StoreFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	w := newTestWidget(failingStore{})
	_, err := w.Initialize(widget.Overrides{})
	require.NoError(t, err)
	conv, err := w.NewConversation(leads.ClientMeta{})
	require.NoError(t, err)

	conv.Start(ctx)
	conv.Choose(ctx, chatflow.ChoiceStartEstimate)
	for _, text := range []string{"Jane", "5552229999", "jane@x.com", "Siding", "skip"} {
		conv.Send(ctx, text)
	}

	state := conv.State()
	assert.Equal(t, chatflow.StepComplete, state.Step)
	assert.True(t, state.Submitted)
}
