// Package render wraps the fractal renderer. The renderer itself is an opaque
// capability; this package only shapes how it is invoked.
package render

import (
	"context"

	"github.com/everFinance/mandelseed/common"
	"github.com/everFinance/mandelseed/schema"
)

var log = common.NewLog("render")

// Params is the viewport handed to the renderer, narrowed to single precision.
type Params struct {
	XMin          float32
	XMax          float32
	YMin          float32
	YMax          float32
	MaxIterations uint32
}

func ParamsFromRegion(r schema.BoundingRegion, maxIterations uint32) Params {
	return Params{
		XMin:          float32(r.XMin),
		XMax:          float32(r.XMax),
		YMin:          float32(r.YMin),
		YMax:          float32(r.YMax),
		MaxIterations: maxIterations,
	}
}

// Renderer writes an image artifact for params to path.
type Renderer interface {
	Capture(ctx context.Context, path string, params Params) error
}

// Disabled fails every capture; used when no renderer is configured.
type Disabled struct{}

func (Disabled) Capture(context.Context, string, Params) error {
	return schema.ErrRenderDisabled
}
