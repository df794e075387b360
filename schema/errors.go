package schema

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")
	ErrNotFound = errors.New("not_found")

	ErrDecode    = errors.New("decode_fixed_point")
	ErrChainCall = errors.New("chain_call")

	ErrRender         = errors.New("render_failed")
	ErrRenderDisabled = errors.New("render_disabled")
)
