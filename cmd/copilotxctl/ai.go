package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	aiCmd := &cobra.Command{Use: "ai", Short: "AI provider operations"}

	chatCmd := &cobra.Command{
		Use:   "chat PROMPT",
		Short: "Send a chat prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON("/api/ai/chat", map[string]interface{}{"prompt": args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	aiCmd.AddCommand(chatCmd)

	ttsStatusCmd := &cobra.Command{
		Use:   "tts-status",
		Short: "Check server-side text-to-speech availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/ai/text-to-speech-status")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	aiCmd.AddCommand(ttsStatusCmd)

	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "List your generated images",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/ai/my-images")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	aiCmd.AddCommand(imagesCmd)

	rootCmd.AddCommand(aiCmd)
}
