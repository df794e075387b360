package schema

const (
	RenderStatusOk     = "ok"
	RenderStatusFailed = "failed"

	// iteration budget for every captured artifact
	RenderMaxIterations = 1360
)

type RenderRecord struct {
	TokenId   uint64 `json:"tokenId"`
	Path      string `json:"path"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	UpdatedAt int64  `json:"updatedAt"`
}
