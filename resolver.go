package mandelseed

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/everFinance/mandelseed/cache"
	"github.com/everFinance/mandelseed/render"
	"github.com/everFinance/mandelseed/schema"
	"golang.org/x/sync/singleflight"
)

const ImagesRoute = "images"

// ChainReader fetches the raw on-chain record of a token.
type ChainReader interface {
	Query(ctx context.Context, id uint64) (schema.TokenRecord, error)
}

// Publisher announces freshly resolved tokens.
type Publisher interface {
	Publish(ctx context.Context, event schema.KafkaTokenResolved) error
}

type ResolverOption func(r *Resolver)

// WithImagesDir sets the directory artifacts are captured into.
func WithImagesDir(dir string) ResolverOption {
	return func(r *Resolver) {
		r.imagesDir = dir
	}
}

// WithStore records every capture outcome in the render ledger.
func WithStore(s *Store) ResolverOption {
	return func(r *Resolver) {
		r.store = s
	}
}

func WithPublisher(p Publisher) ResolverOption {
	return func(r *Resolver) {
		r.publisher = p
	}
}

// Resolver turns a token id into its metadata document. Documents are built
// once per id and served from the cache afterwards, so a token's metadata and
// artifact are frozen at first resolution.
type Resolver struct {
	reader    ChainReader
	renderer  render.Renderer
	cache     *cache.Cache
	store     *Store
	publisher Publisher

	metadataHost string
	dappHost     string
	imagesDir    string

	flight singleflight.Group
}

func NewResolver(reader ChainReader, renderer render.Renderer, c *cache.Cache, metadataHost, dappHost string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		reader:       reader,
		renderer:     renderer,
		cache:        c,
		metadataHost: metadataHost,
		dappHost:     dappHost,
		imagesDir:    "./" + ImagesRoute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the metadata of token id. Any failure to obtain the
// on-chain record yields an error wrapping schema.ErrNotFound and nothing is
// cached. Rendering failures never fail a resolution.
func (r *Resolver) Resolve(ctx context.Context, id uint64) (schema.Metadata, error) {
	if md, ok := r.cache.Get(id); ok {
		metricCacheLookup(true)
		return md, nil
	}
	metricCacheLookup(false)

	// concurrent first requests for one id share a single read and capture
	v, err, _ := r.flight.Do(strconv.FormatUint(id, 10), func() (interface{}, error) {
		if md, ok := r.cache.Get(id); ok {
			return md, nil
		}
		// the flight outlives whichever caller started it
		return r.resolve(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return schema.Metadata{}, err
	}
	return v.(schema.Metadata), nil
}

func (r *Resolver) resolve(ctx context.Context, id uint64) (schema.Metadata, error) {
	start := time.Now()
	rec, err := r.reader.Query(ctx, id)
	metricChainRead(time.Since(start))
	metricResolution(err)
	if err != nil {
		log.Warn("query token failed", "id", id, "err", err)
		return schema.Metadata{}, fmt.Errorf("%w: token %d: %w", schema.ErrNotFound, id, err)
	}

	path := filepath.Join(r.imagesDir, ImageName(id))
	r.capture(ctx, id, path, render.ParamsFromRegion(rec.Field, schema.RenderMaxIterations))

	md := schema.Metadata{
		Image:       r.ImageUrl(id),
		ExternalUrl: r.ExternalUrl(id),
		Attributes:  Attributes(rec),
	}
	r.cache.Put(id, md)

	if r.publisher != nil {
		event := schema.KafkaTokenResolved{
			TokenId:   rec.TokenId,
			Owner:     rec.Owner.Hex(),
			ParentId:  rec.ParentId,
			Layer:     rec.Layer,
			Metadata:  md,
			Timestamp: time.Now().Unix(),
		}
		go func() {
			if err := r.publisher.Publish(context.Background(), event); err != nil {
				log.Error("publish resolved token failed", "id", id, "err", err)
			}
		}()
	}
	return md, nil
}

// capture renders the artifact. Failures are logged and recorded only.
func (r *Resolver) capture(ctx context.Context, id uint64, path string, params render.Params) {
	err := r.renderer.Capture(ctx, path, params)
	metricRender(err)
	switch {
	case err == nil:
	case errors.Is(err, schema.ErrRenderDisabled):
		log.Debug("renderer disabled, skip capture", "id", id)
	default:
		log.Error("capture artifact failed", "id", id, "path", path, "err", err)
	}

	if r.store == nil {
		return
	}
	rec := schema.RenderRecord{
		TokenId:   id,
		Path:      path,
		Status:    schema.RenderStatusOk,
		UpdatedAt: time.Now().Unix(),
	}
	if err != nil {
		rec.Status = schema.RenderStatusFailed
		rec.Error = err.Error()
	}
	if err := r.store.SaveRenderRecord(rec); err != nil {
		log.Error("save render record failed", "id", id, "err", err)
	}
}

func (r *Resolver) ImageUrl(id uint64) string {
	return r.metadataHost + "/" + ImagesRoute + "/" + ImageName(id)
}

func (r *Resolver) ExternalUrl(id uint64) string {
	return r.dappHost + "/tokens/" + strconv.FormatUint(id, 10)
}

// ImageName is the artifact file name of token id.
func ImageName(id uint64) string {
	return strconv.FormatUint(id, 10) + ".png"
}
