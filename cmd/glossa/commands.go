package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"goflare.io/glossa"
	"goflare.io/glossa/internal/httpapi"
)

func newTranslateCmd(a *app) *cobra.Command {
	var (
		opts     glossa.Options
		image    string
		batch    bool
		asJSON   bool
		noCache  bool
		refresh  bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text or the text in an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if image == "" && len(args) == 0 {
				return fmt.Errorf("nothing to translate")
			}

			ctx := cmd.Context()
			g, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer g.Close()

			opts.PromptCategory = category
			opts.DisableCache = noCache
			opts.ForceRefresh = refresh
			out := cmd.OutOrStdout()

			if image != "" {
				data, err := os.ReadFile(image)
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				res, err := g.TranslateImage(ctx, data, opts)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(out, res)
				}
				_, err = fmt.Fprintln(out, res.TranslatedText)
				return err
			}

			if batch {
				results := g.TranslateBatch(ctx, args, opts)
				if asJSON {
					return printJSON(out, results)
				}
				for i, r := range results {
					if r.Err != nil {
						fmt.Fprintf(out, "[%d] error: %v\n", i, r.Err)
						continue
					}
					fmt.Fprintf(out, "[%d] %s\n", i, r.Result.TranslatedText)
				}
				return nil
			}

			res, err := g.Translate(ctx, strings.Join(args, " "), opts)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, res)
			}
			_, err = fmt.Fprintln(out, res.TranslatedText)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.TargetLanguage, "to", "", "Target language (defaults to the settings)")
	f.StringVar(&opts.SourceLanguage, "from", "", "Source language")
	f.StringVar(&category, "category", "", "Prompt category (detected when empty)")
	f.StringVar(&opts.Context, "context", "", "Surrounding text passed to the prompt")
	f.StringVar(&image, "image", "", "Translate the text found in this image file")
	f.BoolVar(&batch, "batch", false, "Translate every argument as a separate fragment")
	f.BoolVar(&noCache, "no-cache", false, "Skip the cache entirely")
	f.BoolVar(&refresh, "refresh", false, "Skip the cache lookup but store the result")
	f.BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newTestCmd(a *app) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "test [provider]",
		Short: "Send a probe translation to a provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer g.Close()

			provider := ""
			if len(args) == 1 {
				provider = args[0]
			}
			res := g.TestConnection(cmd.Context(), provider, apiKey)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "key", "", "API key to test (defaults to the stored one)")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current provider and session state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer g.Close()
			return printJSON(cmd.OutOrStdout(), g.Status())
		},
	}
}

func newUsageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show usage statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer g.Close()

			snap, err := g.UsageStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or manage the translation cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "report",
			Short: "Print the cache usage report",
			RunE: func(cmd *cobra.Command, _ []string) error {
				g, err := a.open(cmd.Context())
				if err != nil {
					return err
				}
				defer g.Close()

				report, err := g.CacheReport(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached translation",
			RunE: func(cmd *cobra.Command, _ []string) error {
				g, err := a.open(cmd.Context())
				if err != nil {
					return err
				}
				defer g.Close()

				if err := g.ClearCache(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
				return err
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Evict expired and low scored entries",
			RunE: func(cmd *cobra.Command, _ []string) error {
				g, err := a.open(cmd.Context())
				if err != nil {
					return err
				}
				defer g.Close()
				return g.CleanupCache(cmd.Context())
			},
		},
	)
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the message channel over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer g.Close()

			srv := httpapi.NewServer(g, a.logger, httpapi.Options{Host: a.env.Host, Port: a.env.Port})
			return srv.Start(cmd.Context())
		},
	}
}
