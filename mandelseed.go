package mandelseed

import (
	"context"
	"os"
	"time"

	"github.com/everFinance/mandelseed/cache"
	"github.com/everFinance/mandelseed/common"
	"github.com/everFinance/mandelseed/config"
	"github.com/everFinance/mandelseed/evm"
	"github.com/everFinance/mandelseed/render"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
)

var log = common.NewLog("mandelseed")

type Mandelseed struct {
	config    config.Config
	engine    *gin.Engine
	scheduler *gocron.Scheduler

	resolver   *Resolver
	reader     *evm.Reader
	cache      *cache.Cache
	store      *Store
	renderPool *render.Pool
	kWriter    *KWriter
}

func New(cfg config.Config) (*Mandelseed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.MetadataHost = config.TrimHost(cfg.MetadataHost)
	cfg.DappHost = config.TrimHost(cfg.DappHost)
	address, err := cfg.Address()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reader, err := evm.Dial(ctx, cfg.NodeRpcUrl, address)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.CacheBackend, cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ImagesDir, os.ModePerm); err != nil {
		return nil, err
	}
	store, err := NewBoltStore(cfg.DbDir)
	if err != nil {
		return nil, err
	}

	var renderer render.Renderer = render.Disabled{}
	if cfg.RendererBin != "" {
		renderer = render.NewCommand(cfg.RendererBin)
	} else {
		log.Warn("no renderer configured, artifacts will not be captured")
	}
	pool, err := render.NewPool(renderer, cfg.RenderConcurrency)
	if err != nil {
		store.Close()
		return nil, err
	}

	opts := []ResolverOption{WithImagesDir(cfg.ImagesDir), WithStore(store)}
	var kWriter *KWriter
	if cfg.KafkaUri != "" {
		kWriter, err = NewKWriter(TokenTopic, cfg.KafkaUri)
		if err != nil {
			pool.Release()
			store.Close()
			return nil, err
		}
		opts = append(opts, WithPublisher(kWriter))
	}

	s := &Mandelseed{
		config:     cfg,
		engine:     gin.Default(),
		scheduler:  gocron.NewScheduler(time.UTC),
		reader:     reader,
		cache:      c,
		store:      store,
		renderPool: pool,
		kWriter:    kWriter,
	}
	s.resolver = NewResolver(reader, pool, c, cfg.MetadataHost, cfg.DappHost, opts...)
	return s, nil
}

func (s *Mandelseed) Run() {
	log.Info("mandelseed running", "port", s.config.Port, "contract", s.reader.Address().Hex(), "cache", s.cache.Backend)
	go s.runAPI(s.config.Port)
	go s.runJobs()
}

func (s *Mandelseed) Close() {
	s.scheduler.Stop()
	if s.renderPool != nil {
		s.renderPool.Release()
	}
	if s.kWriter != nil {
		if err := s.kWriter.Close(); err != nil {
			log.Error("close kafka writer failed", "err", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Error("close store failed", "err", err)
		}
	}
}
