package mandelseed

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/everFinance/mandelseed/common"
	"github.com/everFinance/mandelseed/schema"
	"github.com/gin-gonic/gin"
)

func (s *Mandelseed) runAPI(port string) {
	r := s.router()
	if err := r.Run(port); err != nil {
		panic(err)
	}
}

func (s *Mandelseed) router() *gin.Engine {
	r := s.engine
	r.Use(common.CORSMiddleware(), common.RequestIdMiddleware())
	if s.config.RateLimit > 0 {
		r.Use(common.LimiterMiddleware(s.config.RateLimit, "M", nil))
	}
	r.StaticFS("/"+ImagesRoute, gin.Dir(s.config.ImagesDir, true))

	v1 := r.Group("/")
	{
		v1.GET("/info", s.getInfo)
		v1.GET("/render/:id", s.getRenderRecord)
		if s.config.EnableUpload {
			v1.POST("/files", s.uploadFile)
		}
		v1.GET("/:id", s.getMetadata)
	}
	return r
}

func (s *Mandelseed) getMetadata(c *gin.Context) {
	id, err := parseTokenId(c.Param("id"))
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	md, err := s.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, md)
}

func (s *Mandelseed) getRenderRecord(c *gin.Context) {
	id, err := parseTokenId(c.Param("id"))
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	if s.store == nil {
		c.JSON(http.StatusNotFound, schema.RespErr{Err: ErrNoRenderLedger.Error()})
		return
	}
	rec, err := s.store.LoadRenderRecord(id)
	if err != nil {
		if errors.Is(err, schema.ErrNotExist) {
			c.JSON(http.StatusNotFound, schema.RespErr{Err: err.Error()})
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Mandelseed) getInfo(c *gin.Context) {
	info := schema.RespInfo{
		CacheBackend: s.cache.Backend,
		CacheEntries: s.cache.Len(),
		CacheSize:    s.cache.Capacity,
	}
	if addr, err := s.config.Address(); err == nil {
		info.Contract = addr.Hex()
	}
	c.JSON(http.StatusOK, info)
}

// uploadFile stores a multipart "file" in the images dir under its base name.
func (s *Mandelseed) uploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	name := filepath.Base(file.Filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		errorResponse(c, ErrInvalidFileName.Error())
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(s.config.ImagesDir, name)); err != nil {
		log.Error("save uploaded file failed", "name", name, "err", err)
		internalErrorResponse(c, err.Error())
		return
	}
	log.Info("file uploaded", "name", name, "size", file.Size)
	c.JSON(http.StatusOK, "ok")
}

func parseTokenId(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidTokenId
	}
	return id, nil
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
