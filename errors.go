package mandelseed

import (
	"errors"
)

var (
	ErrInvalidTokenId  = errors.New("invalid_token_id")
	ErrInvalidFileName = errors.New("invalid_file_name")
	ErrNoRenderLedger  = errors.New("render_ledger_disabled")
)
