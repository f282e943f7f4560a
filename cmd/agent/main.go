package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pds-agent/core/internal/llm"
	"github.com/pds-agent/core/internal/metrics"
	"github.com/pds-agent/core/internal/session"
	"github.com/pds-agent/core/pkg/config"
	"github.com/pds-agent/core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics.Init()
	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.ListenAddr))
			if err := metrics.Serve(cfg.Metrics.ListenAddr); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	generator, err := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("failed to create LLM client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := session.NewEngine(cfg, generator)
	engine.StartPruner(ctx)

	logger.Info("agent started", zap.String("model", cfg.LLM.Model))
	runREPL(ctx, engine)

	report := engine.Pruner().PruneAll()
	logger.Info("agent shutting down", zap.Int("pruned", report.Total()))
}

func runREPL(ctx context.Context, engine *session.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("Ready. Type a question, or /quit to exit.")
	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			query := strings.TrimSpace(line)
			if query == "" {
				continue
			}
			if query == "/quit" || query == "/exit" {
				return
			}

			answer, err := engine.Ask(ctx, query)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println(answer.Output.FormatWithConfidence())
			if answer.NeedsAdditionalSearch {
				fmt.Println("(low confidence, additional research recommended)")
			}
		}
	}
}
