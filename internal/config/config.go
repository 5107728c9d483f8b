package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/ocr"
	"goflare.io/glossa/pkg/serialization"
)

// Config 翻譯核心的配置
type Config struct {
	Cache         CacheConfig
	Retry         RetryConfig
	Provider      ProviderConfig
	Store         StoreConfig
	Serialization SerializationConfig

	// PromptDetection 啟用關鍵字評分選擇提示詞類別，預設一律使用 general
	PromptDetection bool
	// LanguageDetection 在來源語言為 auto 時偵測語言
	LanguageDetection bool
	// BatchConcurrency 批次翻譯的併發上限
	BatchConcurrency int

	OCR    ocr.Extractor
	Logger *zap.Logger
	Clock  func() time.Time
}

// CacheConfig 翻譯快取配置
type CacheConfig struct {
	Capacity    int
	TTL         time.Duration
	KeepRatio   float64
	BloomFilter BloomFilterConfig
}

// BloomFilterConfig 用於布隆過濾器的配置
type BloomFilterConfig struct {
	ExpectedItems     uint
	FalsePositiveRate float64
}

// RetryConfig 主要供應商的重試配置，延遲為 Delay * 第幾次嘗試
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// ProviderConfig 供應商傳輸層配置
type ProviderConfig struct {
	HTTPTimeout time.Duration
	// BaseURLs 依供應商名稱覆寫端點
	BaseURLs map[string]string
	// MinDelays 依供應商名稱覆寫最小請求間隔
	MinDelays      map[string]time.Duration
	CircuitBreaker gobreaker.Settings
}

// StoreConfig 儲存層配置
type StoreConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	RedisPrefix string
}

// SerializationConfig 序列化相關配置
type SerializationConfig struct {
	Type  string
	Codec serialization.Codec
}

// Option 函數類型
type Option func(*Config) error

var (
	ErrInvalidCapacity    = errors.New("cache capacity must be at least 1")
	ErrInvalidTTL         = errors.New("cache ttl must be positive")
	ErrInvalidKeepRatio   = errors.New("keep ratio must be in (0, 1]")
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
	ErrInvalidRetryDelay  = errors.New("retry delay must be at least 1ms")
	ErrInvalidTimeout     = errors.New("http timeout must be positive")
	ErrInvalidConcurrency = errors.New("batch concurrency must be at least 1")
)

// NewConfig 創建一個默認的 Config，允許覆蓋特定參數
func NewConfig(options ...Option) (*Config, error) {
	codec, err := serialization.NewCodec(serialization.JSONType)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Cache: CacheConfig{
			Capacity:  1000,
			TTL:       7 * 24 * time.Hour,
			KeepRatio: 0.8,
			BloomFilter: BloomFilterConfig{
				ExpectedItems:     2000,
				FalsePositiveRate: 0.01,
			},
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       time.Second,
		},
		Provider: ProviderConfig{
			HTTPTimeout: 30 * time.Second,
			BaseURLs:    map[string]string{},
			MinDelays:   map[string]time.Duration{},
			CircuitBreaker: gobreaker.Settings{
				MaxRequests: 1,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures > 5
				},
			},
		},
		Store: StoreConfig{
			NumCounters: 1e4,
			MaxCost:     64 << 20,
			BufferItems: 64,
			RedisPrefix: "glossa:",
		},
		Serialization: SerializationConfig{
			Type:  serialization.JSONType,
			Codec: codec,
		},
		BatchConcurrency: 4,
		OCR:              ocr.NewStub(),
		Clock:            time.Now,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Logger == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize default logger: %w", err)
		}
		cfg.Logger = logger
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 最終檢查
func (c *Config) Validate() error {
	switch {
	case c.Cache.Capacity < 1:
		return ErrInvalidCapacity
	case c.Cache.TTL <= 0:
		return ErrInvalidTTL
	case c.Cache.KeepRatio <= 0 || c.Cache.KeepRatio > 1:
		return ErrInvalidKeepRatio
	case c.Retry.MaxAttempts < 1:
		return ErrInvalidMaxAttempts
	case c.Retry.Delay < time.Millisecond:
		return ErrInvalidRetryDelay
	case c.Provider.HTTPTimeout <= 0:
		return ErrInvalidTimeout
	case c.BatchConcurrency < 1:
		return ErrInvalidConcurrency
	}
	return nil
}

// KeepCount 清理後保留的條目數
func (c *Config) KeepCount() int {
	return int(float64(c.Cache.Capacity) * c.Cache.KeepRatio)
}

// WithLogger 設置自定義 Logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger != nil {
			c.Logger = logger
		}
		return nil
	}
}

// WithCacheCapacity 設置快取條目上限
func WithCacheCapacity(capacity int) Option {
	return func(c *Config) error {
		if capacity < 1 {
			return ErrInvalidCapacity
		}
		c.Cache.Capacity = capacity
		if uint(capacity*2) > c.Cache.BloomFilter.ExpectedItems {
			c.Cache.BloomFilter.ExpectedItems = uint(capacity * 2)
		}
		return nil
	}
}

// WithCacheTTL 設置快取條目的存活時間
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		if ttl <= 0 {
			return ErrInvalidTTL
		}
		c.Cache.TTL = ttl
		return nil
	}
}

// WithMaxRetries 設置主要供應商的嘗試次數
func WithMaxRetries(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return ErrInvalidMaxAttempts
		}
		c.Retry.MaxAttempts = n
		return nil
	}
}

// WithRetryDelay 設置線性退避的基礎延遲
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) error {
		if d < time.Millisecond {
			return ErrInvalidRetryDelay
		}
		c.Retry.Delay = d
		return nil
	}
}

// WithHTTPTimeout 設置供應商請求逾時
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidTimeout
		}
		c.Provider.HTTPTimeout = d
		return nil
	}
}

// WithProviderBaseURL 覆寫某個供應商的端點
func WithProviderBaseURL(provider, baseURL string) Option {
	return func(c *Config) error {
		if c.Provider.BaseURLs == nil {
			c.Provider.BaseURLs = map[string]string{}
		}
		c.Provider.BaseURLs[provider] = baseURL
		return nil
	}
}

// WithProviderMinDelay 覆寫某個供應商的最小請求間隔
func WithProviderMinDelay(provider string, d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("min delay for %s must not be negative", provider)
		}
		if c.Provider.MinDelays == nil {
			c.Provider.MinDelays = map[string]time.Duration{}
		}
		c.Provider.MinDelays[provider] = d
		return nil
	}
}

// WithCircuitBreaker 設置每個供應商使用的熔斷器
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return func(c *Config) error {
		c.Provider.CircuitBreaker = settings
		return nil
	}
}

// WithSerialization 設置序列化方式
func WithSerialization(typ string) Option {
	return func(c *Config) error {
		codec, err := serialization.NewCodec(typ)
		if err != nil {
			return err
		}
		c.Serialization = SerializationConfig{Type: codec.Type, Codec: codec}
		return nil
	}
}

// WithPromptDetection 啟用關鍵字評分
func WithPromptDetection(enabled bool) Option {
	return func(c *Config) error {
		c.PromptDetection = enabled
		return nil
	}
}

// WithLanguageDetection 啟用來源語言偵測
func WithLanguageDetection(enabled bool) Option {
	return func(c *Config) error {
		c.LanguageDetection = enabled
		return nil
	}
}

// WithBatchConcurrency 設置批次翻譯併發數
func WithBatchConcurrency(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		c.BatchConcurrency = n
		return nil
	}
}

// WithOCR 設置圖片文字擷取器
func WithOCR(extractor ocr.Extractor) Option {
	return func(c *Config) error {
		if extractor == nil {
			return errors.New("ocr extractor must not be nil")
		}
		c.OCR = extractor
		return nil
	}
}

// WithStore 設置本地儲存的容量參數
func WithStore(sc StoreConfig) Option {
	return func(c *Config) error {
		if sc.NumCounters <= 0 || sc.MaxCost <= 0 || sc.BufferItems <= 0 {
			return errors.New("store counters, cost and buffer items must be positive")
		}
		c.Store = sc
		return nil
	}
}

// WithClock 設置時間來源
func WithClock(clock func() time.Time) Option {
	return func(c *Config) error {
		if clock != nil {
			c.Clock = clock
		}
		return nil
	}
}
