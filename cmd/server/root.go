package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Document plagiarism and AI-generation analysis",
	Long: `Analyzes uploaded PDF, DOCX and TXT documents for overlap with previously
submitted documents and for machine-generated text.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			os.Setenv("CONFIG_FILE", configFile)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML config file (overrides CONFIG_FILE)")
}
