package mandelseed

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/everFinance/mandelseed/cache"
	"github.com/everFinance/mandelseed/config"
	"github.com/everFinance/mandelseed/render"
	"github.com/everFinance/mandelseed/schema"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, reader ChainReader, renderer render.Renderer, mutate func(cfg *config.Config)) *Mandelseed {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.NodeRpcUrl = "http://127.0.0.1:8545"
	cfg.ContractAddress = "5fbdb2315678afecb367f032d93f642f64180aa3"
	cfg.MetadataHost = "https://meta.example"
	cfg.DappHost = "https://app.example"
	cfg.ImagesDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := cache.New(cfg.CacheBackend, cfg.CacheSize)
	require.NoError(t, err)
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := &Mandelseed{
		config:    cfg,
		engine:    gin.New(),
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     c,
		store:     store,
	}
	s.resolver = NewResolver(reader, renderer, c, cfg.MetadataHost, cfg.DappHost,
		WithImagesDir(cfg.ImagesDir), WithStore(store))
	s.router()
	return s
}

func serve(s *Mandelseed, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestAPI_GetMetadata(t *testing.T) {
	s := newTestServer(t, newFakeReader(testRecord(4)), &recordingRenderer{}, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/4", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{
		"image": "https://meta.example/images/4.png",
		"external_url": "https://app.example/tokens/4",
		"attributes": [
			{"display_type": "number", "trait_type": "Parent NFT Id", "value": 1},
			{"display_type": "number", "trait_type": "Locked FUEL", "value": 12.5},
			{"display_type": "number", "trait_type": "Layer", "value": 2},
			{"display_type": "number", "trait_type": "Depth", "value": 2.0}
		]
	}`, w.Body.String())
	// integer-valued floats keep their decimal point
	assert.Contains(t, w.Body.String(), `"trait_type":"Depth","value":2.0}`)

	var md schema.Metadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
	depth, ok := md.Attributes[3].Value.Float()
	assert.True(t, ok)
	assert.Equal(t, 2.0, depth)
	layer, ok := md.Attributes[2].Value.Int()
	assert.True(t, ok)
	assert.EqualValues(t, 2, layer)
}

func TestAPI_GetMetadata_NotFound(t *testing.T) {
	s := newTestServer(t, newFakeReader(), &recordingRenderer{}, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/77", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAPI_GetMetadata_InvalidId(t *testing.T) {
	s := newTestServer(t, newFakeReader(), &recordingRenderer{}, nil)

	for _, id := range []string{"abc", "-1", "1.5", "18446744073709551616"} {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/"+id, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.JSONEq(t, `{"error":"invalid_token_id"}`, w.Body.String(), id)
	}
}

func TestAPI_GetMetadata_Cached(t *testing.T) {
	reader := newFakeReader(testRecord(4))
	s := newTestServer(t, reader, &recordingRenderer{}, nil)

	first := serve(s, httptest.NewRequest(http.MethodGet, "/4", nil))
	second := serve(s, httptest.NewRequest(http.MethodGet, "/4", nil))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, reader.calls.Load())
}

func TestAPI_GetInfo(t *testing.T) {
	s := newTestServer(t, newFakeReader(testRecord(4)), &recordingRenderer{}, func(cfg *config.Config) {
		cfg.CacheSize = 16
	})
	serve(s, httptest.NewRequest(http.MethodGet, "/4", nil))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var info schema.RespInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, schema.RespInfo{
		Contract:     "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		CacheBackend: cache.BackendLRU,
		CacheEntries: 1,
		CacheSize:    16,
	}, info)
}

func TestAPI_GetRenderRecord(t *testing.T) {
	s := newTestServer(t, newFakeReader(testRecord(4)), &recordingRenderer{}, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/render/4", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	serve(s, httptest.NewRequest(http.MethodGet, "/4", nil))
	w = serve(s, httptest.NewRequest(http.MethodGet, "/render/4", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var rec schema.RenderRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.EqualValues(t, 4, rec.TokenId)
	assert.Equal(t, schema.RenderStatusOk, rec.Status)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/render/x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_Images(t *testing.T) {
	s := newTestServer(t, newFakeReader(), &recordingRenderer{}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(s.config.ImagesDir, "4.png"), []byte("png"), 0644))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/images/4.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/images/5.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func uploadRequest(t *testing.T, name string, body []byte) *http.Request {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAPI_UploadFile(t *testing.T) {
	s := newTestServer(t, newFakeReader(), &recordingRenderer{}, func(cfg *config.Config) {
		cfg.EnableUpload = true
	})

	w := serve(s, uploadRequest(t, "../escape.png", []byte("data")))
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := os.ReadFile(filepath.Join(s.config.ImagesDir, "escape.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	w = serve(s, httptest.NewRequest(http.MethodGet, "/images/escape.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_UploadFile_Disabled(t *testing.T) {
	s := newTestServer(t, newFakeReader(), &recordingRenderer{}, nil)

	w := serve(s, uploadRequest(t, "a.png", []byte("data")))
	assert.NotEqual(t, http.StatusOK, w.Code)
	_, err := os.Stat(filepath.Join(s.config.ImagesDir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}
