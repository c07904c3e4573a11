package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chat-cli",
	Short: "Chat CLI - terminal client for the rental support chat",
	Long: `chat-cli talks to the chat API the same way the web widget and the
admin console do: REST for history and lists, the websocket for live messages.

Examples:
  # Mint a development token (secret auth mode) and store it in the profile
  chat-cli token --id cust-1 --name Casey --save

  # Chat as a customer
  chat-cli widget

  # Admin console
  chat-cli console list
  chat-cli console history 12
  chat-cli console close 12
  chat-cli console watch`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(profileCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("profile", defaultProfilePath(), "Profile file")
	rootCmd.PersistentFlags().String("server", "", "Server root URL (overrides the profile)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides the profile)")
}
