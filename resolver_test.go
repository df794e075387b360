package mandelseed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/mandelseed/cache"
	"github.com/everFinance/mandelseed/render"
	"github.com/everFinance/mandelseed/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu      sync.Mutex
	records map[uint64]schema.TokenRecord
	err     error
	delay   time.Duration
	calls   atomic.Int64

	// set when any Query saw a context deadline
	deadline atomic.Bool
}

func newFakeReader(recs ...schema.TokenRecord) *fakeReader {
	f := &fakeReader{records: make(map[uint64]schema.TokenRecord)}
	for _, rec := range recs {
		f.records[rec.TokenId] = rec
	}
	return f
}

func (f *fakeReader) set(rec schema.TokenRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.TokenId] = rec
}

func (f *fakeReader) Query(ctx context.Context, id uint64) (schema.TokenRecord, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		f.deadline.Store(true)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return schema.TokenRecord{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return schema.TokenRecord{}, fmt.Errorf("%w: execution reverted", schema.ErrChainCall)
	}
	return rec, nil
}

type capture struct {
	path   string
	params render.Params
}

type recordingRenderer struct {
	mu       sync.Mutex
	captures []capture
	err      error
}

func (r *recordingRenderer) Capture(_ context.Context, path string, params render.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures = append(r.captures, capture{path: path, params: params})
	return r.err
}

func (r *recordingRenderer) captured() []capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capture(nil), r.captures...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []schema.KafkaTokenResolved
}

func (p *recordingPublisher) Publish(_ context.Context, event schema.KafkaTokenResolved) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []schema.KafkaTokenResolved {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]schema.KafkaTokenResolved(nil), p.events...)
}

func testRecord(id uint64) schema.TokenRecord {
	return schema.TokenRecord{
		TokenId:      id,
		Owner:        common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ParentId:     1,
		Field:        schema.BoundingRegion{XMin: -1, YMin: -1, XMax: 0, YMax: 0},
		LockedFuel:   12.5,
		MinimumPrice: 0.1,
		Layer:        2,
	}
}

func newTestResolver(t *testing.T, reader ChainReader, renderer render.Renderer, opts ...ResolverOption) *Resolver {
	c, err := cache.NewLocalCache(cache.DefaultCapacity)
	require.NoError(t, err)
	opts = append([]ResolverOption{WithImagesDir("images")}, opts...)
	return NewResolver(reader, renderer, c, "https://meta.example", "https://app.example", opts...)
}

func TestResolver_Resolve(t *testing.T) {
	reader := newFakeReader(testRecord(4))
	renderer := &recordingRenderer{}
	r := newTestResolver(t, reader, renderer)

	md, err := r.Resolve(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "https://meta.example/images/4.png", md.Image)
	assert.Equal(t, "https://app.example/tokens/4", md.ExternalUrl)
	assert.Equal(t, Attributes(testRecord(4)), md.Attributes)

	caps := renderer.captured()
	require.Len(t, caps, 1)
	assert.Equal(t, filepath.Join("images", "4.png"), caps[0].path)
	assert.Equal(t, render.Params{XMin: -1, XMax: 0, YMin: -1, YMax: 0, MaxIterations: 1360}, caps[0].params)

	cached, ok := r.cache.Get(4)
	assert.True(t, ok)
	assert.Equal(t, md, cached)
}

func TestResolver_Resolve_Idempotent(t *testing.T) {
	reader := newFakeReader(testRecord(4))
	renderer := &recordingRenderer{}
	r := newTestResolver(t, reader, renderer)

	first, err := r.Resolve(context.Background(), 4)
	require.NoError(t, err)

	// on-chain changes after first resolution are not observed
	changed := testRecord(4)
	changed.Layer = 9
	changed.LockedFuel = 99
	reader.set(changed)

	second, err := r.Resolve(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, reader.calls.Load())
	assert.Len(t, renderer.captured(), 1)
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	renderer := &recordingRenderer{}
	r := newTestResolver(t, newFakeReader(), renderer)

	_, err := r.Resolve(context.Background(), 404)
	assert.ErrorIs(t, err, schema.ErrNotFound)
	assert.ErrorIs(t, err, schema.ErrChainCall)
	assert.Equal(t, 0, r.cache.Len())
	assert.Empty(t, renderer.captured())

	// decode failures are reported the same way
	reader := newFakeReader()
	reader.err = fmt.Errorf("%w: xMin exceeds 128 bits", schema.ErrDecode)
	r = newTestResolver(t, reader, renderer)
	_, err = r.Resolve(context.Background(), 1)
	assert.ErrorIs(t, err, schema.ErrNotFound)
	assert.ErrorIs(t, err, schema.ErrDecode)
	assert.Equal(t, 0, r.cache.Len())
}

func TestResolver_Resolve_NotFoundIsRetried(t *testing.T) {
	reader := newFakeReader()
	r := newTestResolver(t, reader, &recordingRenderer{})

	_, err := r.Resolve(context.Background(), 7)
	require.ErrorIs(t, err, schema.ErrNotFound)

	reader.set(testRecord(7))
	_, err = r.Resolve(context.Background(), 7)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, reader.calls.Load())
}

func TestResolver_Resolve_RenderFailure(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	renderer := &recordingRenderer{err: fmt.Errorf("%w: exit status 1", schema.ErrRender)}
	r := newTestResolver(t, newFakeReader(testRecord(3)), renderer, WithStore(store))

	md, err := r.Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "https://meta.example/images/3.png", md.Image)
	assert.Equal(t, 1, r.cache.Len())

	rec, err := store.LoadRenderRecord(3)
	require.NoError(t, err)
	assert.Equal(t, schema.RenderStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "exit status 1")
	assert.Equal(t, filepath.Join("images", "3.png"), rec.Path)
}

func TestResolver_Resolve_RenderDisabled(t *testing.T) {
	r := newTestResolver(t, newFakeReader(testRecord(3)), render.Disabled{})
	md, err := r.Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, md.Attributes, 4)
}

func TestResolver_Resolve_RenderLedger(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	r := newTestResolver(t, newFakeReader(testRecord(5)), &recordingRenderer{}, WithStore(store))
	_, err = r.Resolve(context.Background(), 5)
	require.NoError(t, err)

	rec, err := store.LoadRenderRecord(5)
	require.NoError(t, err)
	assert.Equal(t, schema.RenderStatusOk, rec.Status)
	assert.Empty(t, rec.Error)
}

func TestResolver_Resolve_Concurrent(t *testing.T) {
	reader := newFakeReader(testRecord(8))
	reader.delay = 20 * time.Millisecond
	renderer := &recordingRenderer{}
	r := newTestResolver(t, reader, renderer)

	const n = 32
	results := make([]schema.Metadata, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), 8)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 1, r.cache.Len())
	calls := reader.calls.Load()
	assert.GreaterOrEqual(t, calls, int64(1))
	assert.LessOrEqual(t, calls, int64(n))
	assert.Len(t, renderer.captured(), int(calls))
}

func TestResolver_Resolve_CanceledCallerDoesNotAbortFlight(t *testing.T) {
	reader := newFakeReader(testRecord(6))
	r := newTestResolver(t, reader, &recordingRenderer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, 6)
	assert.NoError(t, err)
}

func TestResolver_Resolve_NoExtraChainDeadline(t *testing.T) {
	reader := newFakeReader(testRecord(6))
	r := newTestResolver(t, reader, &recordingRenderer{})

	_, err := r.Resolve(context.Background(), 6)
	require.NoError(t, err)
	// timeouts are left to the rpc transport
	assert.False(t, reader.deadline.Load())
}

func TestResolver_Resolve_Publish(t *testing.T) {
	pub := &recordingPublisher{}
	r := newTestResolver(t, newFakeReader(testRecord(9)), &recordingRenderer{}, WithPublisher(pub))

	md, err := r.Resolve(context.Background(), 9)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), 9)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 10*time.Millisecond)
	// cache hits are not announced again
	time.Sleep(20 * time.Millisecond)
	events := pub.published()
	require.Len(t, events, 1)
	assert.EqualValues(t, 9, events[0].TokenId)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", events[0].Owner)
	assert.EqualValues(t, 2, events[0].Layer)
	assert.Equal(t, md, events[0].Metadata)
}

func TestResolver_Urls(t *testing.T) {
	r := newTestResolver(t, newFakeReader(), &recordingRenderer{})
	assert.Equal(t, "https://meta.example/images/18446744073709551615.png", r.ImageUrl(^uint64(0)))
	assert.Equal(t, "https://app.example/tokens/0", r.ExternalUrl(0))
	assert.Equal(t, "12.png", ImageName(12))
}

func testEvent() schema.KafkaTokenResolved {
	rec := testRecord(1)
	return schema.KafkaTokenResolved{
		TokenId:  rec.TokenId,
		Owner:    rec.Owner.Hex(),
		ParentId: rec.ParentId,
		Layer:    rec.Layer,
		Metadata: schema.Metadata{
			Image:       "https://meta.example/images/1.png",
			ExternalUrl: "https://app.example/tokens/1",
			Attributes:  Attributes(rec),
		},
		Timestamp: 1700000000,
	}
}
