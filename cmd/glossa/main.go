// glossa translates text through LLM providers with caching and failover.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goflare.io/glossa"
)

var (
	version = "dev"
	commit  = "none"
)

type app struct {
	envFile string
	env     *envConfig
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "glossa",
		Short:         "Translate text through LLM providers with caching and failover",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(a.envFile, cmd.Flags().Changed("env"))
			if err != nil {
				return err
			}
			logger, err := env.logger()
			if err != nil {
				return err
			}
			a.env, a.logger = env, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "Path to the .env file")

	root.AddCommand(
		newTranslateCmd(a),
		newTestCmd(a),
		newStatusCmd(a),
		newUsageCmd(a),
		newCacheCmd(a),
		newServeCmd(a),
	)
	return root
}

// open builds a Glossa instance from the environment. Redis is used when
// GLOSSA_REDIS_ADDR is set, otherwise state lives only in this process.
func (a *app) open(ctx context.Context) (*glossa.Glossa, error) {
	e := a.env
	opts := []glossa.Option{
		glossa.WithLogger(a.logger),
		glossa.WithSerialization(e.Serialization),
		glossa.WithCacheCapacity(e.CacheCapacity),
		glossa.WithCacheTTL(e.CacheTTL),
		glossa.WithMaxRetries(e.MaxRetries),
		glossa.WithRetryDelay(e.RetryDelay),
		glossa.WithHTTPTimeout(e.HTTPTimeout),
		glossa.WithPromptDetection(e.PromptDetection),
		glossa.WithLanguageDetection(e.LanguageDetection),
		glossa.WithRedisPrefix(e.RedisPrefix),
	}
	if e.BaseURL != "" {
		opts = append(opts, glossa.WithProviderBaseURL(firstNonEmpty(e.Provider, "deepseek"), e.BaseURL))
	}

	var (
		g   *glossa.Glossa
		err error
	)
	if e.RedisAddr != "" {
		g, err = glossa.NewWithRedis(ctx, &redis.Options{Addr: e.RedisAddr, Password: e.RedisPassword, DB: e.RedisDB}, opts...)
	} else {
		g, err = glossa.NewInMemory(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}

	var patch glossa.SettingsPatch
	if e.APIKey != "" {
		patch.APIKey = &e.APIKey
	}
	if e.Provider != "" {
		patch.APIProvider = &e.Provider
	}
	if patch.APIKey != nil || patch.APIProvider != nil {
		if _, err := g.UpdateSettings(ctx, patch); err != nil {
			_ = g.Close()
			return nil, err
		}
	}
	return g, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "glossa: %v\n", err)
		os.Exit(1)
	}
}
