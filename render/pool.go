package render

import (
	"context"
	"fmt"

	"github.com/everFinance/mandelseed/schema"
	"github.com/panjf2000/ants/v2"
)

// Pool bounds how many captures run at once. Callers still wait for their own
// capture; excess callers queue inside the pool.
type Pool struct {
	renderer Renderer
	pool     *ants.Pool
}

func NewPool(renderer Renderer, size int) (*Pool, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{renderer: renderer, pool: p}, nil
}

func (p *Pool) Capture(ctx context.Context, path string, params Params) error {
	errCh := make(chan error, 1)
	err := p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("capture panic", "err", r, "path", path)
				errCh <- fmt.Errorf("%w: panic: %v", schema.ErrRender, r)
			}
		}()
		errCh <- p.renderer.Capture(ctx, path, params)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", schema.ErrRender, err)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Release() {
	p.pool.Release()
}
