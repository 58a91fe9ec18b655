package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

type callLog struct {
	mu    sync.Mutex
	names []string
}

func (l *callLog) add(n string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, n)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

type fakeProvider struct {
	cfg   ProviderConfig
	delay time.Duration
	err   error
	out   []ContactFields
	log   *callLog
}

func (f *fakeProvider) Config() ProviderConfig { return f.cfg }

func (f *fakeProvider) Extract(ctx context.Context, _ Request) (Extraction, error) {
	if f.log != nil {
		f.log.add(f.cfg.Name)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Extraction{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Extraction{}, f.err
	}
	return Extraction{Provider: f.cfg.Name, Variant: f.cfg.Variant, Contacts: f.out}, nil
}

func provider(name string, priority int, log *callLog) *fakeProvider {
	return &fakeProvider{
		cfg: ProviderConfig{Name: name, Variant: VariantOpenAICompatible, Priority: priority, Timeout: time.Second, HasCredential: true},
		log: log,
	}
}

func gateway(t *testing.T, ps ...Provider) *Gateway {
	t.Helper()
	reg, err := NewRegistry(ps...)
	require.NoError(t, err)
	return NewGateway(reg, nil)
}

func TestGatewayWithoutProvidersReturnsNoResult(t *testing.T) {
	g := gateway(t)
	assert.False(t, g.Configured())

	out := g.Extract(context.Background(), Request{Text: "jane@acme.com"})
	assert.False(t, out.OK())
	assert.Empty(t, out.Attempts)
	assert.NoError(t, out.Err())
}

func TestGatewayTriesProvidersInDescendingPriority(t *testing.T) {
	log := &callLog{}
	low := provider("low", 1, log)
	low.out = []ContactFields{{Name: "Jane Doe"}}
	high := provider("high", 3, log)
	high.err = errors.New("boom")
	mid := provider("mid", 2, log)
	mid.err = errors.New("rate limited")

	out := gateway(t, low, high, mid).Extract(context.Background(), Request{Text: "x"})
	require.True(t, out.OK())
	assert.Equal(t, []string{"high", "mid", "low"}, log.get())
	assert.Equal(t, "low", out.Extraction.Provider)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, entity.AttemptError, out.Attempts[0].Outcome)
	assert.Equal(t, entity.AttemptOK, out.Attempts[2].Outcome)
	assert.NoError(t, out.Err())
}

func TestGatewayStopsAtFirstSuccess(t *testing.T) {
	log := &callLog{}
	first := provider("first", 2, log)
	first.out = []ContactFields{{Email: "jane@acme.com"}}
	second := provider("second", 1, log)

	out := gateway(t, first, second).Extract(context.Background(), Request{Text: "x"})
	require.True(t, out.OK())
	assert.Equal(t, []string{"first"}, log.get())
	assert.Len(t, out.Attempts, 1)
}

func TestGatewayMovesOnAfterTimeout(t *testing.T) {
	log := &callLog{}
	slow := provider("slow", 2, log)
	slow.cfg.Timeout = 50 * time.Millisecond
	slow.delay = 5 * time.Second
	fast := provider("fast", 1, log)
	fast.out = []ContactFields{{Name: "Jane Doe"}}

	start := time.Now()
	out := gateway(t, slow, fast).Extract(context.Background(), Request{Text: "x"})
	assert.Less(t, time.Since(start), time.Second)

	require.True(t, out.OK())
	assert.Equal(t, "fast", out.Extraction.Provider)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, entity.AttemptTimeout, out.Attempts[0].Outcome)
	assert.Equal(t, entity.AttemptOK, out.Attempts[1].Outcome)
}

func TestGatewayDoesNotWaitForProviderIgnoringContext(t *testing.T) {
	stuck := &fakeProvider{cfg: ProviderConfig{Name: "stuck", Variant: VariantOllama, Timeout: 30 * time.Millisecond}}
	g := gateway(t, ProviderFunc(stuck.cfg, func(ctx context.Context, _ Request) (Extraction, error) {
		time.Sleep(300 * time.Millisecond)
		return Extraction{}, nil
	}))

	start := time.Now()
	out := g.Extract(context.Background(), Request{Text: "x"})
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.False(t, out.OK())
	assert.Equal(t, entity.AttemptTimeout, out.Attempts[0].Outcome)
}

func TestGatewayAllFail(t *testing.T) {
	a := provider("a", 2, nil)
	a.err = errors.New("401")
	b := provider("b", 1, nil)
	b.err = errors.New("500")
	g := gateway(t, a, b)

	out := g.Extract(context.Background(), Request{Text: "x"})
	assert.False(t, out.OK())
	assert.Len(t, out.Attempts, 2)
	err := out.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAllProvidersFailed)
	assert.Equal(t, common.CodeAllProvidersFailed, common.CodeOf(err))

	health := g.Providers()
	require.Len(t, health, 2)
	assert.Equal(t, int64(1), health[0].Attempts)
	assert.Equal(t, int64(1), health[0].Failures)
}

func TestGatewayStopsWhenRequestDeadlinePasses(t *testing.T) {
	log := &callLog{}
	a := provider("a", 2, log)
	a.delay = time.Second
	b := provider("b", 1, log)
	b.out = []ContactFields{{Name: "never"}}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	out := gateway(t, a, b).Extract(ctx, Request{Text: "x"})

	assert.False(t, out.OK())
	assert.Equal(t, []string{"a"}, log.get())
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, entity.AttemptTimeout, out.Attempts[0].Outcome)
}

func TestGatewayCachesSuccess(t *testing.T) {
	log := &callLog{}
	p := provider("p", 1, log)
	p.out = []ContactFields{{Name: "Jane Doe"}}
	reg, err := NewRegistry(p)
	require.NoError(t, err)
	g := NewGateway(reg, nil, WithCache(8, time.Minute))

	first := g.Extract(context.Background(), Request{Text: "same"})
	second := g.Extract(context.Background(), Request{Text: "same"})
	third := g.Extract(context.Background(), Request{Text: "other"})

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Extraction.Contacts, second.Extraction.Contacts)
	assert.False(t, third.Cached)
	assert.Equal(t, []string{"p", "p"}, log.get())
}

func TestRegistry(t *testing.T) {
	a := provider("a", 1, nil)
	b := provider("b", 5, nil)
	c := provider("c", 1, nil)

	reg, err := NewRegistry(a, b, c)
	require.NoError(t, err)
	var names []string
	for _, cfg := range reg.Configs() {
		names = append(names, cfg.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)

	_, err = NewRegistry(a, provider("a", 2, nil))
	assert.ErrorContains(t, err, "registered twice")

	bad := provider("bad", 1, nil)
	bad.cfg.Variant = "cohere"
	_, err = NewRegistry(bad)
	assert.ErrorContains(t, err, "unknown provider variant")

	noTimeout := provider("nt", 1, nil)
	noTimeout.cfg.Timeout = 0
	_, err = NewRegistry(noTimeout)
	assert.Error(t, err)
}

func TestParseVariant(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(" " + string(v) + " ")
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVariant("mistral")
	assert.Error(t, err)
}
