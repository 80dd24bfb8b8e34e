package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		orgSlug    string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an organization's calls as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, orgSlug, outPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	cmd.Flags().StringVar(&orgSlug, "org", "", "organization slug (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	cmd.MarkFlagRequired("org")
	return cmd
}

func runExport(cmd *cobra.Command, configPath, orgSlug, outPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteCSV(gormDB, orgSlug, w); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported calls for %q to %s\n", orgSlug, outPath)
	}
	return nil
}
