package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/boat-builder/chatpod"
	"github.com/spf13/cobra"
)

// openPod loads the configuration, installs the logger and connects to the database.
func openPod(ctx context.Context) (*chatpod.Pod, error) {
	config, err := chatpod.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.SlogLevel(),
	}))
	slog.SetDefault(logger)

	return chatpod.OpenPod(ctx, config, logger)
}

func closePod(pod *chatpod.Pod) {
	if err := pod.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chatpod",
		Short:         "Chat with an LLM that remembers the recent conversation",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pod, err := openPod(ctx)
			if err != nil {
				return err
			}
			defer closePod(pod)

			agent, err := pod.NewAgent()
			if err != nil {
				return err
			}

			session := chatpod.NewSession()
			err = chatpod.NewShell(agent, session, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)

			slog.Info("Session ended", session.SummaryAttrs()...)
			return err
		},
	}
	rootCmd.AddCommand(newKnowledgeCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var completionErr *chatpod.CompletionError
		if errors.As(err, &completionErr) {
			slog.Error("An error occurred", "model", completionErr.Model, "error", completionErr.Err)
		} else {
			slog.Error("chatpod failed", "error", err)
		}
		os.Exit(1)
	}
}
