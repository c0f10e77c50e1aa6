package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-agent/internal/config"
)

var (
	classifyConfigPath string
	classifyChat       float64
	classifyBorderline float64
	classifySeek       float64
)

var classifyCmd = &cobra.Command{
	Use:   "classify <score>",
	Short: "Classify an overall score into a candidate stage",
	Long: `Maps an overall score to PASS, CHAT, SEEK or CONTACT using the configured thresholds
(defaults 6.0 / 7.0 / 8.0). A score equal to a threshold belongs to the higher stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyConfigPath, "config", "", "Path to config.json file with thresholds")
	classifyCmd.Flags().Float64Var(&classifyChat, "chat", 0, "Chat threshold")
	classifyCmd.Flags().Float64Var(&classifyBorderline, "borderline", 0, "Borderline threshold")
	classifyCmd.Flags().Float64Var(&classifySeek, "seek", 0, "Seek threshold")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	score, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid score %q: %w", args[0], err)
	}

	var cfg config.Config
	if classifyConfigPath != "" {
		loaded, err := config.LoadConfig(classifyConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("chat") {
		cfg.ChatThreshold = classifyChat
	}
	if cmd.Flags().Changed("borderline") {
		cfg.BorderlineThreshold = classifyBorderline
	}
	if cmd.Flags().Changed("seek") {
		cfg.SeekThreshold = classifySeek
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	stage := cfg.Thresholds().Classify(score)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", stage, stage.Describe())
	return nil
}
