package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/kevinmichaelchen/repo-analyzer/internal/cache"
	"github.com/kevinmichaelchen/repo-analyzer/internal/config"
	"github.com/kevinmichaelchen/repo-analyzer/internal/github"
	"github.com/kevinmichaelchen/repo-analyzer/internal/llm"
	"github.com/kevinmichaelchen/repo-analyzer/internal/log"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"github.com/kevinmichaelchen/repo-analyzer/internal/pipeline"
	"github.com/kevinmichaelchen/repo-analyzer/internal/server"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "repo-analyzer",
		Short:         "GitHub repository analysis with health score and LLM summary",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (environment variables take precedence)")

	root.AddCommand(serveCmd(&configPath), analyzeCmd(&configPath))

	if err := root.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the analyzer shared by both commands.
func setup(ctx context.Context, configPath string) (*config.Config, *pipeline.Analyzer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log.Initialize(log.ParseLevel(cfg.LogLevel), os.Stderr)

	gh, err := github.NewClient(github.Config{
		Token:     cfg.GitHub.Token,
		APIURL:    cfg.GitHub.APIURL,
		RawURL:    cfg.GitHub.RawURL,
		UserAgent: cfg.GitHub.UserAgent,
	})
	if err != nil {
		return nil, nil, err
	}

	sum, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.GitHub.Token == "" {
		log.Warn("GITHUB_TOKEN not set; GitHub allows 60 unauthenticated requests per hour")
	}
	if cfg.LLM.APIKey == "" {
		log.Warn("no LLM API key configured; summaries will be placeholders", "provider", cfg.LLM.Provider)
	}

	return cfg, pipeline.New(gh, sum), nil
}

func serveCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the streaming analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, analyzer, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			srv := server.New(analyzer, cache.New[*models.AnalysisResult](), server.Config{
				CacheTTL:   cfg.CacheTTL,
				RateLimit:  cfg.RateLimit.Requests,
				RateWindow: cfg.RateLimit.Window,
			})
			return srv.Run(ctx, ":"+cfg.Port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	return cmd
}

func analyzeCmd(configPath *string) *cobra.Command {
	var noLLM, asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [repo-url]",
		Short: "Analyze one repository and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			id, ok := github.ParseRepoURL(args[0])
			if !ok {
				return fmt.Errorf("invalid GitHub repo URL: %s", args[0])
			}

			_, analyzer, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}

			opts := pipeline.Options{Summarize: !noLLM}
			res, err := runWithProgress(ctx, analyzer, id, opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printReport(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip the LLM summary")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw analysis result as JSON")
	return cmd
}

func runWithProgress(ctx context.Context, analyzer *pipeline.Analyzer, id models.RepoID, opts pipeline.Options) (*models.AnalysisResult, error) {
	steps := len(pipeline.Stages)
	if !opts.Summarize {
		steps -= 2
	}

	bar := progressbar.NewOptions(steps,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription("[cyan]Analyzing "+id.FullName()+"[reset]"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		// debug records share stderr with the bar
		progressbar.OptionSetVisibility(!log.Enabled(slog.LevelDebug)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	for ev := range analyzer.Analyze(ctx, id, opts) {
		switch ev.Kind {
		case pipeline.Progress:
			bar.Describe("[cyan]" + ev.Message + "[reset]")
			_ = bar.Add(1)
		case pipeline.Result:
			_ = bar.Finish()
			return ev.Result, nil
		case pipeline.Failed:
			_ = bar.Exit()
			return nil, fmt.Errorf("%s: %w", ev.Stage, ev.Err)
		}
	}
	_ = bar.Exit()
	return nil, ctx.Err()
}
