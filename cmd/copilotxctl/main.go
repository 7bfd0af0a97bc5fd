package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/copilotx/copilotx-server/internal/auth"
)

var (
	apiFlag string
	keyFlag string
	rootCmd = &cobra.Command{
		Use:   "copilotxctl",
		Short: "CLI client for the CopilotX backend REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "CopilotX service base URL")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", auth.LocalDevAPIKey, "Bearer API key")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
