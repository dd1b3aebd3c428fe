package autoinject_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnbullerin/autoinject"
)

type widget struct {
	label    string
	disposed int
	mu       sync.Mutex
}

func (w *widget) Dispose() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.disposed++
	return nil
}

func (w *widget) disposedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

func widgetFactory(label string) autoinject.Factory {
	return func(context.Context, autoinject.Resolver) (any, error) {
		return &widget{label: label}, nil
	}
}

func newTestInjector(opts ...autoinject.Option) *autoinject.Injector {
	opts = append([]autoinject.Option{autoinject.WithLogger(autoinject.NewNoopLogger())}, opts...)
	return autoinject.New(opts...)
}

func TestNew_SelfRegistration(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()

	resolved, err := autoinject.ResolveFor[*autoinject.Injector](context.Background(), inj)
	require.NoError(t, err)
	assert.Same(t, inj, resolved)

	// GLOBAL scope: same instance from any context.
	again, err := autoinject.ResolveFor[*autoinject.Injector](context.Background(), inj)
	require.NoError(t, err)
	assert.Same(t, resolved, again)
}

func TestResolve_Unregistered(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()

	_, err := inj.Get(autoinject.Named("missing"))

	assert.Error(t, err)
	assert.True(t, autoinject.IsUnregisteredIdentifier(err))
}

func TestResolve_HighestWeightConstructorWins(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.A")

	require.NoError(t, inj.Register(id, widgetFactory("buildA"), autoinject.WithWeight(0)))
	require.NoError(t, inj.Register(id, widgetFactory("buildB"), autoinject.WithWeight(5)))

	resolved, err := inj.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "buildB", resolved.(*widget).label)
}

func TestResolve_GlobalPolicyConcurrentIdentity(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.global")

	var buildsMu sync.Mutex
	builds := 0
	require.NoError(t, inj.Register(id, func(context.Context, autoinject.Resolver) (any, error) {
		buildsMu.Lock()
		builds++
		buildsMu.Unlock()
		return &widget{label: "global"}, nil
	}, autoinject.WithScopePolicy(autoinject.ScopeGlobal)))

	const n = 16
	results := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instance, err := inj.Get(id)
			assert.NoError(t, err)
			results[i] = instance
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, builds)
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestResolve_ContextPolicyPerGoroutine(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.ctx")
	require.NoError(t, inj.Register(id, widgetFactory("ctx")))

	local, err := inj.Get(id)
	require.NoError(t, err)
	localAgain, err := inj.Get(id)
	require.NoError(t, err)
	assert.Same(t, local, localAgain)

	var remote any
	var remoteGID uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		remoteGID = autoinject.CurrentGoroutineID()
		instance, err := inj.Get(id)
		assert.NoError(t, err)
		remote = instance
	}()
	wg.Wait()

	assert.NotSame(t, local, remote)

	// Post-join cleanup releases the finished goroutine's cache and
	// disposes its instance.
	evicted := inj.ThreadCleanup(remoteGID)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, remote.(*widget).disposedCount())
	assert.Equal(t, 0, local.(*widget).disposedCount())
}

func TestResolve_NonePolicyAlwaysFresh(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.none")
	require.NoError(t, inj.Register(id, widgetFactory("fresh"),
		autoinject.WithScopePolicy(autoinject.ScopeNone)))

	first, err := inj.Get(id)
	require.NoError(t, err)
	second, err := inj.Get(id)
	require.NoError(t, err)
	third, err := inj.Get(id)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.NotSame(t, second, third)
	assert.NotSame(t, first, third)
}

func TestResolve_ConstructionErrorNotCached(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.flaky")

	calls := 0
	require.NoError(t, inj.Register(id, func(context.Context, autoinject.Resolver) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient failure")
		}
		return &widget{label: "recovered"}, nil
	}))

	_, err := inj.Get(id)
	require.Error(t, err)
	assert.True(t, autoinject.IsConstructionError(err))

	resolved, err := inj.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "recovered", resolved.(*widget).label)
	assert.Equal(t, 2, calls)
}

func TestOverride_FlushesCachedInstances(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.A")
	require.NoError(t, inj.Register(id, widgetFactory("original")))

	before, err := inj.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "original", before.(*widget).label)

	require.NoError(t, inj.Override(id, widgetFactory("override")))

	// The old instance was evicted and disposed; the override builds the
	// replacement.
	assert.Equal(t, 1, before.(*widget).disposedCount())
	after, err := inj.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "override", after.(*widget).label)
}

func TestAcquire_CopyModeIsolatesChildren(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.scoped")
	require.NoError(t, inj.Register(id, widgetFactory("scoped")))

	parent := autoinject.NewExecutionScope()
	ctx := autoinject.WithScope(context.Background(), parent)
	inj.Touch(ctx)

	instances := make([]*widget, 0, 2)
	for i := 0; i < 2; i++ {
		err := inj.Acquire(ctx, autoinject.AcquireCopy, func(ctx context.Context) error {
			instance, err := autoinject.Resolve[*widget](ctx, inj, id)
			if err != nil {
				return err
			}
			instances = append(instances, instance)
			return nil
		})
		require.NoError(t, err)
	}

	assert.NotSame(t, instances[0], instances[1])

	// Exit-time cleanup disposed each child's instance exactly once.
	assert.Equal(t, 1, instances[0].disposedCount())
	assert.Equal(t, 1, instances[1].disposedCount())
}

func TestAcquire_SameModeSharesThenDiverges(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.scoped")
	require.NoError(t, inj.Register(id, widgetFactory("scoped")))

	scope := autoinject.NewExecutionScope()
	ctx := autoinject.WithScope(context.Background(), scope)
	inj.Touch(ctx)

	outer, err := autoinject.Resolve[*widget](ctx, inj, id)
	require.NoError(t, err)

	err = inj.Acquire(ctx, autoinject.AcquireSame, func(ctx context.Context) error {
		inner, err := autoinject.Resolve[*widget](ctx, inj, id)
		if err != nil {
			return err
		}
		// Freshened in place: the scope now resolves to a new instance.
		assert.NotSame(t, outer, inner)
		innerAgain, err := autoinject.Resolve[*widget](ctx, inj, id)
		if err != nil {
			return err
		}
		assert.Same(t, inner, innerAgain)
		return nil
	})
	require.NoError(t, err)

	// After exit, the previous token is restored and the pre-freshen
	// instance is visible again.
	restored, err := autoinject.Resolve[*widget](ctx, inj, id)
	require.NoError(t, err)
	assert.Same(t, outer, restored)
}

func TestFreshen_RestoreRoundTrip(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()

	scope := autoinject.NewExecutionScope()
	ctx := autoinject.WithScope(context.Background(), scope)
	before := inj.Touch(ctx)

	rt := inj.Freshen(ctx)
	assert.NotEqual(t, before, scope.Token())

	inj.Restore(rt)
	assert.Equal(t, before, scope.Token())

	// A stale restore is a no-op.
	inj.Restore(rt)
	assert.Equal(t, before, scope.Token())
}

func TestRegisterInformant_AffectsNewKeysOnly(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.req")
	require.NoError(t, inj.Register(id, widgetFactory("req")))

	informant := autoinject.NewNamedInformant()
	inj.RegisterInformant(informant)
	defer inj.DeregisterInformant(informant)

	first, err := inj.Get(id)
	require.NoError(t, err)

	informant.SwitchContext("request-2")
	second, err := inj.Get(id)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	informant.SwitchContext("_default")
	again, err := inj.Get(id)
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestDeregisterInformant_DistinctInstancesOfSameKind(t *testing.T) {
	inj := newTestInjector(autoinject.WithoutGoroutineInformant())
	defer inj.Shutdown()

	registered := autoinject.NewGoroutineInformant()
	inj.RegisterInformant(registered)

	// A separately constructed informant of the same kind is a different
	// instance; deregistering it must not remove the registered one.
	inj.DeregisterInformant(autoinject.NewGoroutineInformant())

	found := 0
	for _, informant := range inj.Informants() {
		if informant == registered {
			found++
		}
	}
	assert.Equal(t, 1, found)

	// Deregistering the actual instance removes it.
	inj.DeregisterInformant(registered)
	for _, informant := range inj.Informants() {
		assert.False(t, informant == registered)
	}
}

func TestSweep_EvictsEndedNamedContexts(t *testing.T) {
	inj := newTestInjector(autoinject.WithSweepInterval(time.Nanosecond))
	defer inj.Shutdown()
	id := autoinject.Named("svc.req")
	require.NoError(t, inj.Register(id, widgetFactory("req")))

	informant := autoinject.NewNamedInformant()
	inj.RegisterInformant(informant)

	informant.SwitchContext("request-1")
	instance, err := inj.Get(id)
	require.NoError(t, err)

	informant.SwitchContext("_default")
	informant.EndContext("request-1")

	// Any later resolution triggers the sweep.
	time.Sleep(time.Millisecond)
	_, err = inj.Get(id)
	require.NoError(t, err)

	assert.Equal(t, 1, instance.(*widget).disposedCount())
}

func TestShutdown_DisposesExactlyOnce(t *testing.T) {
	inj := newTestInjector()
	id := autoinject.Named("svc.A")
	require.NoError(t, inj.Register(id, widgetFactory("a"),
		autoinject.WithScopePolicy(autoinject.ScopeGlobal)))

	instance, err := inj.Get(id)
	require.NoError(t, err)

	inj.Shutdown()
	inj.Shutdown()
	assert.Equal(t, 1, instance.(*widget).disposedCount())

	// Resolution after shutdown transparently re-constructs.
	rebuilt, err := inj.Get(id)
	require.NoError(t, err)
	assert.NotSame(t, instance, rebuilt)
}

func TestResolveTyped_Mismatch(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.A")
	require.NoError(t, inj.Register(id, widgetFactory("a")))

	_, err := autoinject.Resolve[string](context.Background(), inj, id)

	assert.Error(t, err)
	assert.True(t, autoinject.IsTypeMismatch(err))
}

func TestMust_PanicsOnFailure(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()

	assert.Panics(t, func() {
		autoinject.Must[*widget](context.Background(), inj, autoinject.Named("missing"))
	})
}

func TestRegisterValue_GlobalInstance(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()
	id := autoinject.Named("svc.value")
	value := &widget{label: "prebuilt"}

	require.NoError(t, autoinject.RegisterValue(inj, id, value))

	resolved, err := autoinject.Resolve[*widget](context.Background(), inj, id)
	require.NoError(t, err)
	assert.Same(t, value, resolved)
}

func TestIdentifier_TypeAndNameNormalize(t *testing.T) {
	inj := newTestInjector()
	defer inj.Shutdown()

	require.NoError(t, inj.Register(autoinject.For[*widget](), widgetFactory("typed"),
		autoinject.WithScopePolicy(autoinject.ScopeGlobal)))

	byType, err := autoinject.ResolveFor[*widget](context.Background(), inj)
	require.NoError(t, err)
	byName, err := inj.Get(autoinject.Named(autoinject.For[*widget]().Key()))
	require.NoError(t, err)

	assert.Same(t, byType, byName)
}
