package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/config"
	"github.com/mnr-tools/policy-crawler/internal/crawler"
	"github.com/mnr-tools/policy-crawler/internal/httpclient"
	"github.com/mnr-tools/policy-crawler/internal/logging"
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/parser"
	"github.com/mnr-tools/policy-crawler/internal/progress"
	"github.com/mnr-tools/policy-crawler/internal/progress/sinks"
	"github.com/mnr-tools/policy-crawler/internal/textclean"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Starts the policy crawl",
		Long: `Runs the two-stage crawl over the configured data sources:
search every source's policy listing, then fetch and persist each
policy's detail page and attachments.`,

		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientCfg, err := buildClientConfig(cfg)
	if err != nil {
		return err
	}
	factory := func(src model.DataSource) (crawler.AccessClient, error) {
		return httpclient.New(src, clientCfg, logger.Named("http"))
	}

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return fmt.Errorf("init prometheus sink: %w", err)
	}
	hub := progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger.Named("progress")),
		sinks.NewCallbackSink(func(line string) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}),
		promSink,
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
	}()

	sources := cfg.Sources
	if len(sources) == 0 {
		sources = defaultSources()
	}

	orch := crawler.New(crawler.Options{
		Sources:             sources,
		Keywords:            cfg.Crawl.Keywords,
		StartDate:           cfg.Crawl.StartDate,
		EndDate:             cfg.Crawl.EndDate,
		MaxPages:            cfg.Crawl.MaxPages,
		OutputDir:           cfg.Output.Dir,
		SaveJSON:            cfg.Output.SaveJSON,
		SaveMarkdown:        cfg.Output.SaveMarkdown,
		SaveDocx:            cfg.Output.SaveDocx,
		DownloadAttachments: cfg.Output.DownloadAttachments,
		TitleSimilarity:     cfg.Output.TitleSimilarity,
		MaxPolicyRetries:    cfg.Crawl.MaxPolicyRetries,
		PolicyRetryDelay:    cfg.PolicyRetryDelay(),
		RequestDelay:        cfg.RequestDelay(),
		Emitter:             hub,
	}, factory, parser.NewRegistry(logger.Named("parser")), logger.Named("crawler"))

	prog, _, err := orch.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}

	printSummary(cmd, prog)
	return nil
}

func buildClientConfig(cfg config.Config) (httpclient.Config, error) {
	clientCfg := httpclient.Config{
		MaxRetries:            cfg.HTTP.MaxRetries,
		RetryDelay:            cfg.RetryDelay(),
		SearchTimeout:         time.Duration(cfg.HTTP.SearchTimeoutSeconds) * time.Second,
		DownloadTimeout:       time.Duration(cfg.HTTP.DownloadTimeoutSeconds) * time.Second,
		SessionRotateInterval: cfg.HTTP.SessionRotateInterval,
		PerPage:               cfg.HTTP.PerPage,
		Clean:                 textclean.Options{MetadataRunThreshold: cfg.Clean.MetadataRunThreshold},
	}
	if cfg.HTTP.UseProxy {
		proxies, err := httpclient.NewStaticProxies(cfg.HTTP.Proxies)
		if err != nil {
			return httpclient.Config{}, fmt.Errorf("init proxies: %w", err)
		}
		clientCfg.Proxy = proxies
	}
	return clientCfg, nil
}

func printSummary(cmd *cobra.Command, prog *model.CrawlProgress) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "状态: %s\n", prog.Status)
	fmt.Fprintf(out, "成功: %d | 失败: %d | 成功率: %.1f%%\n",
		prog.CompletedCount, prog.FailedCount, prog.SuccessRate())
	for _, fp := range prog.FailedPolicies {
		fmt.Fprintf(out, "失败记录: %s (%s): %s\n", fp.Title, fp.Link, fp.Reason)
	}
}

// defaultSources covers the two ministry listing variants when the config
// file names none.
func defaultSources() []model.DataSource {
	return []model.DataSource{
		{
			Name:      "自然资源部政府信息公开",
			BaseURL:   "https://gi.mnr.gov.cn",
			SearchAPI: "https://gi.mnr.gov.cn/was5/web/search",
			ChannelID: "200072",
			Level:     "自然资源部",
			Enabled:   true,
		},
		{
			Name:      "自然资源部法规库",
			BaseURL:   "https://f.mnr.gov.cn",
			SearchAPI: "https://f.mnr.gov.cn/was5/web/search",
			ChannelID: "200103",
			Level:     "自然资源部",
			Enabled:   true,
		},
	}
}
