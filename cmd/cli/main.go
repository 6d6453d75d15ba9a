package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8686"
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "vecinet",
	Short: "VeciNet CLI - Manage your neighborhood posts from the terminal",
	Long: `VeciNet CLI provides command-line access to your VeciNet account.
Browse the feed, manage your posts, extend expiring ones and report abuse.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("VECINET_TOKEN")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to VECINET_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postsCmd)
}

// requireToken guards commands that hit authenticated endpoints.
func requireToken() error {
	if authToken == "" {
		return fmt.Errorf("VECINET_TOKEN environment variable not set (or pass --token)")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
