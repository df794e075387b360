package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/mandelseed/cache"
)

const (
	DefaultPort              = ":10000"
	DefaultMetricPort        = ":9000"
	DefaultImagesDir         = "./images"
	DefaultDbDir             = "./data/bolt"
	DefaultRenderConcurrency = 4
)

type Config struct {
	NodeRpcUrl      string
	ContractAddress string
	MetadataHost    string
	DappHost        string

	Port       string
	MetricPort string
	ImagesDir  string
	DbDir      string

	CacheSize    int
	CacheBackend string

	RendererBin       string
	RenderConcurrency int

	KafkaUri     string
	RateLimit    int // requests per minute per origin+ip, 0 disables
	EnableUpload bool
}

func Default() Config {
	return Config{
		Port:              DefaultPort,
		MetricPort:        DefaultMetricPort,
		ImagesDir:         DefaultImagesDir,
		DbDir:             DefaultDbDir,
		CacheSize:         cache.DefaultCapacity,
		CacheBackend:      cache.BackendLRU,
		RenderConcurrency: DefaultRenderConcurrency,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.NodeRpcUrl == "" {
		errs = append(errs, errors.New("node rpc url is required"))
	}
	if c.MetadataHost == "" {
		errs = append(errs, errors.New("metadata host is required"))
	}
	if c.DappHost == "" {
		errs = append(errs, errors.New("dapp host is required"))
	}
	if _, err := c.Address(); err != nil {
		errs = append(errs, err)
	}
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("cache size must be positive, got %d", c.CacheSize))
	}
	if c.CacheBackend != cache.BackendLRU && c.CacheBackend != cache.BackendBigCache {
		errs = append(errs, fmt.Errorf("unknown cache backend: %q", c.CacheBackend))
	}
	if c.RenderConcurrency < 1 {
		errs = append(errs, fmt.Errorf("render concurrency must be positive, got %d", c.RenderConcurrency))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %d", c.RateLimit))
	}
	return errors.Join(errs...)
}

// Address parses the contract address; the 0x prefix is optional.
func (c Config) Address() (common.Address, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(c.ContractAddress), "0x"), "0X")
	if !common.IsHexAddress(hex) {
		return common.Address{}, fmt.Errorf("invalid contract address: %q", c.ContractAddress)
	}
	return common.HexToAddress(hex), nil
}

// TrimHost drops trailing slashes so urls can be joined with "/".
func TrimHost(host string) string {
	return strings.TrimRight(host, "/")
}
