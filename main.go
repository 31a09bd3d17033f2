package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"ailo_generator/config"
	"ailo_generator/framework"
	"ailo_generator/generator"
	"ailo_generator/logging"
	"ailo_generator/normalizer"
	"ailo_generator/server"
	"ailo_generator/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "ailo",
		Short: "Turn course syllabi into AI-enhanced learning outcomes",
		Long: `ailo extracts learning outcomes and assessments from a syllabus
(PDF, DOCX or TXT) and rewrites a share of them to build AI literacy,
following the DEC AI Literacy Framework.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (YAML or JSON)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")

	cmd.AddCommand(a.serveCmd(), a.extractCmd(), a.generateCmd(), a.frameworkCmd())
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, a.verbose, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ServerAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server_addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	agent, err := a.buildAgent(ctx, reg)
	if err != nil {
		return err
	}
	st, err := buildStore(a.cfg.Session)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := server.New(agent, st, a.cfg, a.logger, reg)
	if err != nil {
		return err
	}
	listen := a.cfg.ServerAddr
	if listen == "" {
		listen = config.DefaultServerAddr
	}
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting web server",
			zap.String("addr", listen),
			zap.String("provider", a.cfg.LLM.Provider),
			zap.String("session_backend", a.cfg.Session.Backend),
		)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (a *app) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract learning outcomes and assessments from a syllabus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, err := normalizer.Normalize(normalizer.RawDocument{
				Bytes:     data,
				Extension: normalizer.ExtensionOf(filepath.Base(args[0])),
			})
			if err != nil {
				return err
			}
			agent, err := a.buildAgent(cmd.Context(), nil)
			if err != nil {
				return err
			}
			a.logger.Info("extracting", zap.String("file", args[0]), zap.Int("chars", len(text)))
			res := agent.Extract(cmd.Context(), text)
			if res.Failed() {
				return fmt.Errorf("extraction failed: %s", res.Error)
			}
			return printJSON(cmd, res)
		},
	}
}

func (a *app) generateCmd() *cobra.Command {
	var (
		inventoryPath string
		dimensions    []string
		percent       int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate AILOs from a reviewed inventory file",
		Long: `generate reads a JSON file shaped like the extract output
({"learning_outcomes": [...], "assessment_methods": [...]}) and prints the
generated AILOs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			data, err := os.ReadFile(inventoryPath)
			if err != nil {
				return err
			}
			var res generator.ExtractionResult
			if err := json.Unmarshal(data, &res); err != nil {
				return fmt.Errorf("parse inventory %s: %w", inventoryPath, err)
			}
			agent, err := a.buildAgent(cmd.Context(), nil)
			if err != nil {
				return err
			}
			inv := generator.Validate(res.LearningOutcomes, res.AssessmentMethods)
			result, err := agent.Generate(cmd.Context(), inv, dimensions, percent)
			if err != nil {
				return err
			}
			if result.Failed() {
				return fmt.Errorf("generation failed: %s", result.Error)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "inventory JSON file")
	cmd.Flags().StringSliceVarP(&dimensions, "dimension", "d", nil, "DEC dimension to focus on (repeatable)")
	cmd.Flags().IntVarP(&percent, "percent", "p", 50, "share of outcomes to transform (0-100)")
	_ = cmd.MarkFlagRequired("inventory")
	return cmd
}

func (a *app) frameworkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "framework",
		Short: "Print the DEC AI Literacy Framework",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), framework.JSON())
			return err
		},
	}
}

// buildAgent builds the oracle for the configured provider. When reg is
// non-nil the oracle is instrumented.
func (a *app) buildAgent(ctx context.Context, reg prometheus.Registerer) (*generator.Agent, error) {
	llm, err := buildLLM(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	if reg != nil {
		llm = generator.NewMetrics(reg).Instrument(llm)
	}
	return generator.NewAgent(llm, a.logger)
}

func buildLLM(ctx context.Context, cfg config.LLMConfig) (generator.LLMClient, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key_env in config")
	}
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	}
	switch cfg.Provider {
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func buildStore(cfg config.SessionConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("session backend %s not supported", cfg.Backend)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
