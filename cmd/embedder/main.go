// Package main provides the embedder CLI application entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"embedder/internal/core"
	httpserver "embedder/internal/http"
	"embedder/internal/render"
	"embedder/pkg/embed"
	"embedder/pkg/text"
)

const envPrefix = "EMBEDDER"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "embedder",
	Short: "embedder - Spotify links → embedded players",
	Long: `embedder rewrites standalone Spotify links in Markdown and HTML documents
into iframe embeds. It can render files, classify single URLs or run as an HTTP service.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if viper.GetBool("generate-env-example") {
			return generateEnvExample(cmd)
		}
		return cmd.Help()
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [files...]",
	Short: "Render Markdown or HTML files, or stdin to stdout",
	RunE:  runRender,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <url>... | -",
	Short: "Print the embed decision for each URL, or for every URL found in stdin",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP render service",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", core.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().Int("cache-size", core.DefaultCacheSize, "Number of URLs whose embed decision is memoized (0 disables)")
	rootCmd.PersistentFlags().Int("workers", core.DefaultWorkers, "Number of files rendered concurrently")
	rootCmd.PersistentFlags().Bool("minify", false, "Minify rendered HTML")
	rootCmd.PersistentFlags().Bool("linkify", true, "Treat bare URLs in Markdown as links")
	rootCmd.PersistentFlags().String("out-dir", "", "Directory for rendered files (default is next to the input)")
	rootCmd.PersistentFlags().String("format", "markdown", "Format of stdin input (markdown, html)")
	rootCmd.PersistentFlags().String("server-host", core.DefaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", core.DefaultServerPort, "HTTP server port")
	rootCmd.PersistentFlags().Int64("server-max-body-bytes", core.DefaultMaxBodyBytes, "Maximum request body size")
	rootCmd.PersistentFlags().Int("server-rate-limit", core.DefaultRateLimit, "Requests per minute per client (0 disables)")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(renderCmd, classifyCmd, serveCmd)
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		// Don't exit if .env file doesn't exist, just warn
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureRender(cfg)
	configureServer(cfg)

	return cfg
}

func configureRender(cfg *core.Config) {
	cfg.Render.CacheSize = viper.GetInt("cache-size")
	cfg.Render.Workers = viper.GetInt("workers")
	if cfg.Render.Workers <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid worker count (%d), using default (%d)\n",
			cfg.Render.Workers, core.DefaultWorkers)
		cfg.Render.Workers = core.DefaultWorkers
	}
	cfg.Render.Minify = viper.GetBool("minify")
	cfg.Render.Linkify = viper.GetBool("linkify")
	cfg.Render.OutDir = viper.GetString("out-dir")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = core.DefaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Server.MaxBodyBytes = viper.GetInt64("server-max-body-bytes")
	cfg.Server.RateLimitPerMinute = viper.GetInt("server-rate-limit")
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = viper.GetString("log-format")
}

func buildLogger(logConfig core.LogConfig) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(logConfig.Level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if logConfig.Format == "text" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	// stdout carries rendered documents.
	cfg.OutputPaths = []string{"stderr"}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func validateConfig() error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be positive, got %d", config.Server.MaxBodyBytes)
	}
	if config.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server rate limit must not be negative, got %d", config.Server.RateLimitPerMinute)
	}
	if _, err := stdinFormat(); err != nil {
		return err
	}
	return nil
}

func stdinFormat() (render.Format, error) {
	switch strings.ToLower(viper.GetString("format")) {
	case "markdown", "md", "":
		return render.FormatMarkdown, nil
	case "html":
		return render.FormatHTML, nil
	}
	return 0, fmt.Errorf("unsupported format %q (markdown, html)", viper.GetString("format"))
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	renderer := render.NewRenderer(&config.Render, logger.Named("render"), nil)

	if len(args) == 0 {
		return renderStdin(renderer, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	results, err := renderer.Files(ctx, args)
	if err != nil {
		return err
	}

	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", res.Input, res.Output)
	}

	logger.Info("Rendered files", zap.Int("count", len(results)))
	return nil
}

func renderStdin(renderer *render.Renderer, in io.Reader, out io.Writer) error {
	format, err := stdinFormat()
	if err != nil {
		return err
	}

	src, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	rendered, err := renderer.Render(format, src)
	if err != nil {
		return err
	}

	_, err = out.Write(rendered)
	return err
}

func runClassify(cmd *cobra.Command, args []string) error {
	manager := embed.NewManager()

	urls := args
	if len(args) == 1 && args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		urls = text.NewScanner().ExtractURLs(string(src))
	}

	for _, rawURL := range urls {
		e, err := manager.Embed(rawURL)
		if errors.Is(err, embed.ErrNoTransformer) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tno match\n", rawURL)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s/%s\t%s\n", rawURL, e.Provider, e.Kind, e.Src)
	}

	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting embedder",
		zap.Int("cache_size", config.Render.CacheSize),
		zap.Bool("minify", config.Render.Minify),
		zap.Bool("linkify", config.Render.Linkify))

	httpServer := httpserver.NewServer(&config.Server, &config.Render, logger.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	logger.Info("embedder started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("embedder stopped with error", zap.Error(err))
		return err
	}

	logger.Info("embedder stopped gracefully")
	return nil
}
