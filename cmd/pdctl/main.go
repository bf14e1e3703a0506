// Command pdctl is a small operator tool for the PromptDesk backend: it
// repairs model JSON output and sends one-off prompts through the provider
// chain.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"promptdesk-backend/internal/config"
	"promptdesk-backend/internal/jsonrepair"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/logging"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdctl",
		Short:         "PromptDesk operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRepairCmd(), newAskCmd())
	return root
}

func newRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Read model output on stdin and print it as valid JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			fixed, err := jsonrepair.Repair(string(in))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fixed)
			return err
		},
	}
}

type askOptions struct {
	system    string
	providers string
	raw       bool
}

func newAskCmd() *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one prompt through the provider chain and render the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVar(&opts.system, "system", "", "system prompt")
	cmd.Flags().StringVar(&opts.providers, "providers", "", "provider file (defaults to PROVIDERS_FILE)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the answer without markdown rendering")
	return cmd
}

func runAsk(ctx context.Context, out io.Writer, prompt string, opts askOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New("warn")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	chainCfg := llm.DefaultChainConfig(cfg.LLMTimeout)
	path := opts.providers
	if path == "" {
		path = cfg.ProvidersFile
	}
	if path != "" {
		if chainCfg, err = llm.LoadChainConfig(path); err != nil {
			return err
		}
	}
	chain, err := llm.NewDefaultRegistry(logger).NewChainFromConfig(chainCfg, llm.WithLogger(logger))
	if err != nil {
		return err
	}

	resp, err := chain.Generate(ctx, llm.Request{
		System:   opts.system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return err
	}
	logger.Debug("Answered", zap.String("provider", resp.Provider), zap.String("model", resp.Model))

	text := resp.Text
	if !opts.raw {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("create markdown renderer: %w", err)
		}
		if text, err = r.Render(resp.Text); err != nil {
			return fmt.Errorf("render answer: %w", err)
		}
	}
	if _, err := fmt.Fprintln(out, strings.TrimRight(text, "\n")); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "-- %s\n", resp.Provider)
	return err
}
