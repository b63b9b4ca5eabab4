package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/genefryaustin-source/cui-inspector/internal/extract"
)

func newAnalyzeCmd() *cobra.Command {
	var file, rulesetName string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one local document and print its findings as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			text, err := extract.New().Extract(filepath.Base(file), data)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if rulesetName == "" {
				rulesetName = rt.cfg.Analysis.DefaultRuleset
			}
			findings, err := rt.svc.Engine.Analyze(text, rulesetName)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(findings); err != nil {
				return fmt.Errorf("encode findings: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "document to analyze")
	cmd.Flags().StringVar(&rulesetName, "ruleset", "", "ruleset name (defaults to the configured default)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
