// Package main provides the entry point for the recruiter agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recruiter_agent",
	Short: "Recruiting agent for a hiring platform web portal",
	Long: `Recruiter Agent drives a hiring platform through its web portal: a manager agent discovers
candidates and dispatches each one to a recruiter agent that chats, reviews resumes and
classifies the candidate as PASS, CHAT, SEEK or CONTACT.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
