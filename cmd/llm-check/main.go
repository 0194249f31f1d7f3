// Command llm-check sends one prompt to the configured language model and
// prints the answer. Usage: llm-check [prompt words...]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/realtime-ai/jetvoice/pkg/app"
	"github.com/realtime-ai/jetvoice/pkg/config"
	"github.com/realtime-ai/jetvoice/pkg/llm"
	"github.com/realtime-ai/jetvoice/pkg/logging"
)

const defaultPrompt = "Hello, introduce yourself briefly."

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("llm-check failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	// Only the model settings matter here, so the full Validate is skipped.
	cfg, err := config.FromLookup(os.LookupEnv)
	if err != nil {
		return err
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	key := cfg.OpenAIAPIKey
	if cfg.LLMProvider == config.LLMGemini {
		key = cfg.GeminiAPIKey
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		prompt = defaultPrompt
	}

	fmt.Printf("provider: %s\n", cfg.LLMProvider)
	fmt.Printf("key:      %s\n", llm.MaskKey(key))
	fmt.Printf("prompt:   %s\n", prompt)

	model, err := app.NewLanguageModel(ctx, cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	reply, err := model.Ask(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Printf("response (%s): %s\n", time.Since(start).Round(time.Millisecond), reply)
	return nil
}
