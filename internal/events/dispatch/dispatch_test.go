package dispatch

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenvault/internal/events/metrics"
	"tokenvault/internal/events/models"
	id "tokenvault/pkg/domain"
	tu "tokenvault/pkg/testutil"
)

const (
	typeX models.EventType = "x"
	typeY models.EventType = "y"
	typeZ models.EventType = "z"
)

type fakeHandler struct {
	name   string
	types  []models.EventType
	result bool
	calls  atomic.Int64
}

func (h *fakeHandler) Name() string { return h.name }

func (h *fakeHandler) Matches(event models.IntegrationEvent) bool {
	return event.HasType() && slices.Contains(h.types, event.Type)
}

func (h *fakeHandler) Handle(context.Context, models.IntegrationEvent) bool {
	h.calls.Add(1)
	return h.result
}

// claimingHandler also declares its types to the registry.
type claimingHandler struct {
	*fakeHandler
}

func (h claimingHandler) Claims() []models.EventType { return h.types }

func event(t models.EventType) models.IntegrationEvent {
	return models.IntegrationEvent{ID: id.EventID(uuid.New()), Type: t, ClientID: 7}
}

func newManager(t *testing.T, handlers ...Handler) (*Manager, *metrics.Metrics) {
	t.Helper()
	registry := NewRegistry()
	for _, h := range handlers {
		require.NoError(t, registry.Register(h))
	}
	m := metrics.New(prometheus.NewRegistry())
	manager, err := NewManager(registry, WithMetrics(m))
	require.NoError(t, err)
	return manager, m
}

func TestDispatch_FirstMatchWins(t *testing.T) {
	h1 := &fakeHandler{name: "h1", types: []models.EventType{typeX}, result: true}
	h2 := &fakeHandler{name: "h2", types: []models.EventType{typeX, typeY}, result: true}
	manager, m := newManager(t, h1, h2)
	ctx := context.Background()

	tu.Given(t, "h1 matching X and h2 matching X or Y", func(t *testing.T) {
		tu.When(t, "X is dispatched", func(t *testing.T) {
			ok := manager.Dispatch(ctx, event(typeX))

			tu.Then(t, "only h1 runs", func(t *testing.T) {
				assert.True(t, ok)
				assert.EqualValues(t, 1, h1.calls.Load())
				assert.EqualValues(t, 0, h2.calls.Load())
			})
		})

		tu.When(t, "Y is dispatched", func(t *testing.T) {
			ok := manager.Dispatch(ctx, event(typeY))

			tu.Then(t, "only h2 runs", func(t *testing.T) {
				assert.True(t, ok)
				assert.EqualValues(t, 1, h1.calls.Load())
				assert.EqualValues(t, 1, h2.calls.Load())
			})
		})

		tu.When(t, "Z is dispatched", func(t *testing.T) {
			ok := manager.Dispatch(ctx, event(typeZ))

			tu.Then(t, "dispatch fails and no handler runs", func(t *testing.T) {
				assert.False(t, ok)
				assert.EqualValues(t, 1, h1.calls.Load())
				assert.EqualValues(t, 1, h2.calls.Load())
				assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("z", "", metrics.OutcomeUnmatched)))
			})
		})
	})
}

func TestDispatch_FailureIsNotRetriedOnLaterHandlers(t *testing.T) {
	h1 := &fakeHandler{name: "h1", types: []models.EventType{typeX}, result: false}
	h2 := &fakeHandler{name: "h2", types: []models.EventType{typeX}, result: true}
	registry := NewRegistry(AllowShadowing())
	require.NoError(t, registry.Register(h1))
	require.NoError(t, registry.Register(h2))
	manager, err := NewManager(registry)
	require.NoError(t, err)

	assert.False(t, manager.Dispatch(context.Background(), event(typeX)))
	assert.EqualValues(t, 1, h1.calls.Load())
	assert.EqualValues(t, 0, h2.calls.Load())
}

func TestDispatch_EmptyRegistry(t *testing.T) {
	manager, _ := newManager(t)
	assert.False(t, manager.Dispatch(context.Background(), event(typeX)))
}

func TestDispatch_UntaggedEventMatchesNothing(t *testing.T) {
	h := &fakeHandler{name: "h", types: []models.EventType{typeX, ""}, result: true}
	manager, m := newManager(t, h)

	assert.False(t, manager.Dispatch(context.Background(), models.IntegrationEvent{ID: id.EventID(uuid.New())}))
	assert.EqualValues(t, 0, h.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("untagged", "", metrics.OutcomeUnmatched)))
}

func TestDispatch_Concurrent(t *testing.T) {
	h1 := &fakeHandler{name: "h1", types: []models.EventType{typeX}, result: true}
	h2 := &fakeHandler{name: "h2", types: []models.EventType{typeY}, result: false}
	manager, m := newManager(t, h1, h2)

	var wg sync.WaitGroup
	var succeeded atomic.Int64
	for i := range 64 {
		wg.Go(func() {
			eventType := typeX
			if i%2 == 1 {
				eventType = typeY
			}
			if manager.Dispatch(context.Background(), event(eventType)) {
				succeeded.Add(1)
			}
		})
	}
	wg.Wait()

	assert.EqualValues(t, 32, h1.calls.Load())
	assert.EqualValues(t, 32, h2.calls.Load())
	assert.EqualValues(t, 32, succeeded.Load())
	assert.Equal(t, 32.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("x", "h1", metrics.OutcomeHandled)))
	assert.Equal(t, 32.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("y", "h2", metrics.OutcomeFailed)))
}

func TestRegistry_OrderIsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	a := &fakeHandler{name: "a"}
	b := &fakeHandler{name: "b"}
	c := &fakeHandler{name: "c"}
	registry.MustRegister(a, b, c)

	var names []string
	for h := range registry.All() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Equal(t, 3, registry.Len())
}

func TestRegistry_RejectsShadowedClaims(t *testing.T) {
	first := claimingHandler{&fakeHandler{name: "first", types: []models.EventType{typeX}}}
	second := claimingHandler{&fakeHandler{name: "second", types: []models.EventType{typeY, typeX}}}

	registry := NewRegistry()
	require.NoError(t, registry.Register(first))
	err := registry.Register(second)

	require.ErrorIs(t, err, ErrShadowedType)
	assert.Equal(t, 1, registry.Len(), "a rejected handler is not appended")
}

func TestRegistry_AllowShadowing(t *testing.T) {
	first := claimingHandler{&fakeHandler{name: "first", types: []models.EventType{typeX}}}
	second := claimingHandler{&fakeHandler{name: "second", types: []models.EventType{typeX}}}

	registry := NewRegistry(AllowShadowing())
	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_SealedAfterManagerConstruction(t *testing.T) {
	registry := NewRegistry()
	_, err := NewManager(registry)
	require.NoError(t, err)

	err = registry.Register(&fakeHandler{name: "late"})
	require.ErrorIs(t, err, ErrRegistrySealed)
	assert.Panics(t, func() { registry.MustRegister(&fakeHandler{name: "late"}) })
}

func TestRegistry_RejectsNil(t *testing.T) {
	require.ErrorIs(t, NewRegistry().Register(nil), ErrNilHandler)
}

func TestNewManager_RequiresRegistry(t *testing.T) {
	_, err := NewManager(nil)
	require.Error(t, err)
}
