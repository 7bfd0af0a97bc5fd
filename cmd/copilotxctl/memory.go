package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	memoryCmd := &cobra.Command{Use: "memory", Short: "Memory operations"}

	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Show aggregated memory insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/memory/insights")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	memoryCmd.AddCommand(insightsCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/memory/stats")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	memoryCmd.AddCommand(statsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all memory items",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/memory/all")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	memoryCmd.AddCommand(listCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full memory document",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/memory/export")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	memoryCmd.AddCommand(exportCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete MEMORY_ID",
		Short: "Delete a single memory item by its handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doDelete("/api/memory/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	memoryCmd.AddCommand(deleteCmd)

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Reset the memory document and purge conversation analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			data, err := doDelete("/api/memory/clear-all")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the irreversible reset")
	memoryCmd.AddCommand(clearCmd)

	var messageID, feedbackType string
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record feedback for a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if messageID == "" || feedbackType == "" {
				return fmt.Errorf("--message and --type required")
			}
			payload := map[string]interface{}{
				"messageId":    messageID,
				"feedbackType": feedbackType,
			}
			data, err := doPostJSON("/api/memory/feedback", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	feedbackCmd.Flags().StringVarP(&messageID, "message", "m", "", "Message ID (required)")
	feedbackCmd.Flags().StringVarP(&feedbackType, "type", "t", "", "positive or negative (required)")
	_ = feedbackCmd.MarkFlagRequired("message")
	_ = feedbackCmd.MarkFlagRequired("type")
	memoryCmd.AddCommand(feedbackCmd)

	var memEnabled, histEnabled bool
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Update memory settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("memory") {
				payload["memoryEnabled"] = memEnabled
			}
			if cmd.Flags().Changed("history") {
				payload["chatHistoryEnabled"] = histEnabled
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update; pass --memory and/or --history")
			}
			data, err := doPutJSON("/api/memory/settings", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	settingsCmd.Flags().BoolVar(&memEnabled, "memory", true, "Enable or disable memory")
	settingsCmd.Flags().BoolVar(&histEnabled, "history", true, "Enable or disable chat history")
	memoryCmd.AddCommand(settingsCmd)

	rootCmd.AddCommand(memoryCmd)
}
