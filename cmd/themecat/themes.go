package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/themecat/internal/prompt"
	"github.com/amishk599/themecat/internal/report"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the theme vocabulary",
	Long:  "Prints the themes the LLM is asked to choose from (pipeline.themes in config, or the built-in list).",
	RunE:  runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func runThemes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	themes := prompt.NewBuilder(cfg.Pipeline.Themes).Themes()
	fmt.Println(report.RenderThemes(themes))
	fmt.Printf("\nTotal: %d themes\n", len(themes))
	return nil
}
