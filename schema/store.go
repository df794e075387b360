package schema

// bolt bucket
const (
	RenderBucket = "render-bucket" // key: tokenId, val: RenderRecord json
)
