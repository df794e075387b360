package schema

type RespInfo struct {
	Contract     string `json:"contract"`
	CacheBackend string `json:"cacheBackend"`
	CacheEntries int    `json:"cacheEntries"`
	CacheSize    int    `json:"cacheSize"`
}

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}
