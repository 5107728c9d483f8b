package glossa

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/config"
	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/ocr"
	"goflare.io/glossa/internal/orchestrator"
	"goflare.io/glossa/internal/prompt"
	"goflare.io/glossa/internal/store"
)

type (
	// Option 定義初始化 Glossa 的選項
	Option = config.Option

	Store            = store.Store
	OCRExtractor     = ocr.Extractor
	Options          = models.Options
	Result           = models.Result
	Settings         = models.Settings
	SettingsPatch    = models.SettingsPatch
	ConnectionResult = models.ConnectionResult
	UsageReport      = models.UsageReport
	Status           = orchestrator.Status
	UsageSnapshot    = orchestrator.UsageSnapshot
	BatchResult      = orchestrator.BatchResult
)

// WithLogger 設置自定義的日誌記錄器
func WithLogger(logger *zap.Logger) Option { return config.WithLogger(logger) }

// WithCacheCapacity 設置翻譯快取的條目上限
func WithCacheCapacity(capacity int) Option { return config.WithCacheCapacity(capacity) }

// WithCacheTTL 設置快取條目的存活時間
func WithCacheTTL(ttl time.Duration) Option { return config.WithCacheTTL(ttl) }

// WithMaxRetries 設置主供應商的最大嘗試次數
func WithMaxRetries(n int) Option { return config.WithMaxRetries(n) }

// WithRetryDelay 設置線性重試的基礎延遲
func WithRetryDelay(d time.Duration) Option { return config.WithRetryDelay(d) }

// WithHTTPTimeout 設置供應商請求超時
func WithHTTPTimeout(d time.Duration) Option { return config.WithHTTPTimeout(d) }

// WithProviderBaseURL 覆寫供應商端點
func WithProviderBaseURL(provider, baseURL string) Option {
	return config.WithProviderBaseURL(provider, baseURL)
}

// WithProviderMinDelay 覆寫供應商的最小請求間隔
func WithProviderMinDelay(provider string, d time.Duration) Option {
	return config.WithProviderMinDelay(provider, d)
}

// WithCircuitBreaker 設置每個供應商的斷路器參數
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return config.WithCircuitBreaker(settings)
}

// WithSerialization 設置持久化格式（json 或 gob）
func WithSerialization(typ string) Option { return config.WithSerialization(typ) }

// WithPromptDetection 啟用關鍵字評分的提示詞分類
func WithPromptDetection(enabled bool) Option { return config.WithPromptDetection(enabled) }

// WithLanguageDetection 啟用來源語言偵測
func WithLanguageDetection(enabled bool) Option { return config.WithLanguageDetection(enabled) }

// WithBatchConcurrency 設置批次翻譯的並發上限
func WithBatchConcurrency(n int) Option { return config.WithBatchConcurrency(n) }

// WithOCR 設置圖片文字擷取器
func WithOCR(extractor OCRExtractor) Option { return config.WithOCR(extractor) }

// WithRedisPrefix 設置 Redis 鍵前綴
func WithRedisPrefix(prefix string) Option {
	return func(cfg *config.Config) error {
		cfg.Store.RedisPrefix = prefix
		return nil
	}
}

// Glossa 定義 Glossa 庫的主要結構體
type Glossa struct {
	*orchestrator.Orchestrator
	store  store.Store
	logger *zap.Logger
}

// New 以給定的儲存層初始化 Glossa
func New(ctx context.Context, st Store, opts ...Option) (*Glossa, error) {
	cfg, err := config.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}
	return newWithConfig(ctx, st, cfg)
}

// NewWithRedis 使用 Redis 作為持久化儲存
func NewWithRedis(ctx context.Context, redisOptions *redis.Options, opts ...Option) (*Glossa, error) {
	cfg, err := config.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}

	st, err := store.NewRedisStore(ctx, redisOptions, cfg.Store.RedisPrefix, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return newWithConfig(ctx, st, cfg)
}

// NewInMemory 使用進程內儲存，重啟後資料不保留
func NewInMemory(ctx context.Context, opts ...Option) (*Glossa, error) {
	cfg, err := config.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}

	st, err := store.NewMemoryStore(cfg.Store.NumCounters, cfg.Store.MaxCost, cfg.Store.BufferItems, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return newWithConfig(ctx, st, cfg)
}

func newWithConfig(ctx context.Context, st store.Store, cfg *config.Config) (*Glossa, error) {
	o, err := orchestrator.New(ctx, st, cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}
	return &Glossa{Orchestrator: o, store: st, logger: cfg.Logger}, nil
}

// Categories 列出可用的提示詞類別
func (g *Glossa) Categories() []string {
	return g.Selector().Categories()
}

// AddPromptTemplate 新增或覆寫自訂提示詞模板
func (g *Glossa) AddPromptTemplate(category, template string, keywords ...string) error {
	return g.Selector().AddTemplate(category, template, keywords...)
}

// RemovePromptTemplate 移除自訂提示詞模板，內建的 general 不可移除
func (g *Glossa) RemovePromptTemplate(category string) error {
	return g.Selector().RemoveTemplate(category)
}

// Close 關閉 Glossa，釋放資源
func (g *Glossa) Close() error {
	if err := g.store.Close(); err != nil {
		g.logger.Error("Failed to close store", zap.Error(err))
		return err
	}
	return nil
}

// General 是預設的提示詞類別
const General = prompt.General
