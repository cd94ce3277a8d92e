package main

import (
	"errors"
	"fmt"

	"github.com/boat-builder/chatpod"
	"github.com/spf13/cobra"
)

func newKnowledgeCmd() *cobra.Command {
	knowledgeCmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the agent's knowledge entries",
	}

	addCmd := &cobra.Command{
		Use:   "add KEY VALUE",
		Short: "Store VALUE under KEY, replacing any previous value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pod, err := openPod(cmd.Context())
			if err != nil {
				return err
			}
			defer closePod(pod)

			entry, err := pod.KnowledgeBase().Upsert(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %q (updated %s)\n", entry.Key, entry.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	var threshold float64
	queryCmd := &cobra.Command{
		Use:   "query TEXT",
		Short: "Print the stored value closest in meaning to TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pod, err := openPod(cmd.Context())
			if err != nil {
				return err
			}
			defer closePod(pod)

			if !cmd.Flags().Changed("threshold") {
				threshold = pod.Config().KnowledgeThreshold
			}
			match, err := pod.KnowledgeBase().Query(cmd.Context(), args[0], threshold)
			if errors.Is(err, chatpod.ErrNoMatch) {
				fmt.Fprintln(cmd.OutOrStdout(), "no match found")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (distance %.4f)\n", match.Entry.Key, match.Entry.Value, match.Distance)
			return nil
		},
	}
	queryCmd.Flags().Float64Var(&threshold, "threshold", chatpod.DefaultKnowledgeThreshold, "maximum cosine distance of a match")

	knowledgeCmd.AddCommand(addCmd, queryCmd)
	return knowledgeCmd
}
