package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funcall-ai/funcall/internal/config"
	"github.com/funcall-ai/funcall/internal/functions"
	"github.com/funcall-ai/funcall/internal/functions/builtin"
	"github.com/funcall-ai/funcall/internal/llm"
	"github.com/funcall-ai/funcall/internal/logger"
	"github.com/funcall-ai/funcall/internal/orchestrator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config file (default ~/.config/funcall/config.json)")
		model      = flag.String("model", "", "override the configured model")
		prompt     = flag.String("prompt", "", "run a single prompt and exit")
		logLevel   = flag.String("log-level", "", "override the configured log level (debug|info|warn|error|none)")
		logFile    = flag.String("log-file", "", "write logs to this file")
	)
	flag.Parse()

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	if cfg.LogFile != "" {
		if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogFile); err != nil {
			return err
		}
		defer logger.Global().Close()
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("no API key: set api_key in %s or FUNCALL_API_KEY", path)
	}

	client, err := llm.NewChatClient(llm.ChatClientConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxOutputTokens,
	})
	if err != nil {
		return err
	}

	registry := functions.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return err
	}

	orch := orchestrator.New(llm.NewRetryClient(client), registry, cfg.SystemPrompt)
	logger.Info("ready: model=%s functions=%d conversation=%s",
		cfg.Model, registry.Len(), orch.ConversationID())

	ctx := context.Background()
	if *prompt != "" {
		return runOnce(ctx, orch, *prompt)
	}
	return runLoop(ctx, orch, cfg.Model, os.Stdin, os.Stdout)
}

func runOnce(ctx context.Context, orch *orchestrator.Orchestrator, prompt string) error {
	res := orch.ProcessMessage(ctx, prompt, orchestrator.ProcessOptions{})
	if !res.Success {
		return fmt.Errorf("[%s] %s", res.Error.Kind, res.Error.Message)
	}
	fmt.Println(res.Message)
	return nil
}

func runLoop(ctx context.Context, orch *orchestrator.Orchestrator, model string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "funcall: type a message, /help for commands, /quit to exit")
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleCommand(out, orch, model, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		res := orch.ProcessMessage(ctx, line, orchestrator.ProcessOptions{})
		if !res.Success {
			fmt.Fprintf(out, "[%s] %s\n", res.Error.Kind, res.Error.Message)
			if res.Message != "" {
				fmt.Fprintln(out, res.Message)
			}
			continue
		}
		if len(res.FunctionCalls) > 0 {
			fmt.Fprintf(out, "(used: %s)\n", strings.Join(res.FunctionCalls, ", "))
		}
		fmt.Fprintln(out, res.Message)
	}
}

func handleCommand(out io.Writer, orch *orchestrator.Orchestrator, model, line string) (quit bool, err error) {
	switch cmd := strings.Fields(line)[0]; cmd {
	case "/quit", "/exit":
		return true, nil
	case "/clear":
		orch.ClearHistory()
		fmt.Fprintln(out, "history cleared")
	case "/new":
		id := orch.StartConversation(strings.TrimSpace(strings.TrimPrefix(line, "/new")))
		fmt.Fprintf(out, "started conversation %s\n", id)
	case "/stats":
		stats := orch.Stats()
		fmt.Fprintf(out, "conversation %s: %d messages, ~%d tokens (exact: %d)\n",
			stats.ID, stats.MessageCount, stats.EstimatedTokens, exactTokens(orch, model))
		for role, n := range stats.CountsByRole {
			fmt.Fprintf(out, "  %s: %d\n", role, n)
		}
	case "/export":
		data, err := json.MarshalIndent(orch.Export(true), "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, string(data))
	case "/help":
		fmt.Fprintln(out, "commands: /clear /new [system prompt] /stats /export /quit")
	default:
		return false, fmt.Errorf("unknown command %s", cmd)
	}
	return false, nil
}

// exactTokens counts the transcript with the model's tokenizer when one is
// available; the estimate shown next to it is the trimming baseline.
func exactTokens(orch *orchestrator.Orchestrator, model string) int {
	var b strings.Builder
	for _, m := range orch.Export(true).Messages {
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return llm.CountTokens(model, b.String())
}
