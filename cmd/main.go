package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everFinance/mandelseed"
	"github.com/everFinance/mandelseed/cache"
	"github.com/everFinance/mandelseed/common"
	"github.com/everFinance/mandelseed/config"
	"github.com/getsentry/sentry-go"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mandelseed",
		Usage: "serve metadata documents for mandelbrot NFTs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "node_rpc_url", Usage: "ethereum json-rpc endpoint", EnvVars: []string{"NODE_RPC_URL"}, Required: true},
			&cli.StringFlag{Name: "contract_address", Usage: "nft contract address, 0x prefix optional", EnvVars: []string{"ERC1155_CONTRACT_ADDRESS"}, Required: true},
			&cli.StringFlag{Name: "metadata_host", Usage: "public base url of this service", EnvVars: []string{"METADATA_HOST"}, Required: true},
			&cli.StringFlag{Name: "dapp_host", Usage: "public base url of the dapp", EnvVars: []string{"DAPP_HOST"}, Required: true},

			&cli.StringFlag{Name: "port", Value: config.DefaultPort, EnvVars: []string{"PORT"}},
			&cli.StringFlag{Name: "metric_port", Value: config.DefaultMetricPort, EnvVars: []string{"METRIC_PORT"}},
			&cli.StringFlag{Name: "images_dir", Value: config.DefaultImagesDir, Usage: "directory artifacts are captured into and served from", EnvVars: []string{"IMAGES_DIR"}},
			&cli.StringFlag{Name: "db_dir", Value: config.DefaultDbDir, Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},

			&cli.IntFlag{Name: "cache_size", Value: cache.DefaultCapacity, Usage: "max cached metadata documents", EnvVars: []string{"CACHE_SIZE"}},
			&cli.StringFlag{Name: "cache_backend", Value: cache.BackendLRU, Usage: "lru or bigcache", EnvVars: []string{"CACHE_BACKEND"}},

			&cli.StringFlag{Name: "renderer_bin", Usage: "renderer executable, captures are skipped when empty", EnvVars: []string{"RENDERER_BIN"}},
			&cli.IntFlag{Name: "render_concurrency", Value: config.DefaultRenderConcurrency, EnvVars: []string{"RENDER_CONCURRENCY"}},

			&cli.StringFlag{Name: "kafka", Usage: "kafka broker uri, publishing is off when empty", EnvVars: []string{"KAFKA_URI"}},
			&cli.IntFlag{Name: "rate_limit", Usage: "requests per minute per client, 0 disables", EnvVars: []string{"RATE_LIMIT"}},
			&cli.BoolFlag{Name: "enable_upload", Value: false, Usage: "accept POST /files into the images dir", EnvVars: []string{"ENABLE_UPLOAD"}},
			&cli.StringFlag{Name: "sentry_dsn", EnvVars: []string{"SENTRY_DSN"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	if dsn := c.String("sentry_dsn"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	cfg := config.Default()
	cfg.NodeRpcUrl = c.String("node_rpc_url")
	cfg.ContractAddress = c.String("contract_address")
	cfg.MetadataHost = c.String("metadata_host")
	cfg.DappHost = c.String("dapp_host")
	cfg.Port = c.String("port")
	cfg.MetricPort = c.String("metric_port")
	cfg.ImagesDir = c.String("images_dir")
	cfg.DbDir = c.String("db_dir")
	cfg.CacheSize = c.Int("cache_size")
	cfg.CacheBackend = c.String("cache_backend")
	cfg.RendererBin = c.String("renderer_bin")
	cfg.RenderConcurrency = c.Int("render_concurrency")
	cfg.KafkaUri = c.String("kafka")
	cfg.RateLimit = c.Int("rate_limit")
	cfg.EnableUpload = c.Bool("enable_upload")

	s, err := mandelseed.New(cfg)
	if err != nil {
		return err
	}
	common.NewMetricServer(cfg.MetricPort)
	s.Run()

	<-signals
	s.Close()

	return nil
}
