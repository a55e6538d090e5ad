package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/godfrey-tankan/document-insight-view/internal/config"
	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/utils"
	"github.com/spf13/cobra"
)

var analyzeOwner string

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Analyze a single document and print the result as JSON",
	Long: `Runs the full analysis pipeline on FILE against the configured document
store and prints the result. The document is stored like an upload would be.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOwner, "owner", "cli", "owner id recorded with the document")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if int64(len(data)) > cfg.MaxFileSize {
		return fmt.Errorf("%s exceeds MAX_FILE_SIZE (%d bytes)", path, cfg.MaxFileSize)
	}

	ctx := context.Background()
	application, err := newApp(ctx, cfg, quiet(cfg))
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.service.Analyze(ctx, &models.AnalyzeRequest{
		File:        data,
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		OwnerID:     analyzeOwner,
	})
	if err != nil {
		if appErr, ok := utils.AsAppError(err); ok {
			return fmt.Errorf("analysis failed (%d): %s", appErr.StatusCode, appErr.Message)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// quiet keeps one-shot commands from mixing log lines into their output.
func quiet(cfg *config.Config) *utils.Logger {
	if cfg.LogLevel == "debug" {
		return utils.NewLoggerTo(os.Stderr, cfg.LogLevel)
	}
	return utils.NewLoggerTo(os.Stderr, "warn")
}
