package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/su1ph3r/wafprobe/internal/catalog"
	"github.com/su1ph3r/wafprobe/internal/reporter"
	"github.com/su1ph3r/wafprobe/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the test catalog",
	Long:  `List or export the active test catalog (built-in, or the file given with --catalog)`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the test cases in run order",
	RunE: func(cmd *cobra.Command, args []string) error {
		updateConfigFromFlags(cmd)
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		listCatalog(cmd.OutOrStdout(), cat)
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active catalog as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		updateConfigFromFlags(cmd)
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return catalog.Export(cmd.OutOrStdout(), cat)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer f.Close()

		if err := catalog.Export(f, cat); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Catalog exported to: %s", output)
		return nil
	},
}

func init() {
	catalogExportCmd.Flags().StringP("output", "o", "", "Output file (stdout if empty)")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)
}

func listCatalog(w io.Writer, cat *catalog.Catalog) {
	heading := color.New(color.FgCyan)
	n := 0

	for i, section := range cat.Sections {
		fmt.Fprintf(w, "\n%s\n", heading.Sprintf("[%d] %s", i+1, section.Title))
		for _, tc := range section.Cases {
			n++
			fmt.Fprintf(w, "  %3d  %-45s %-6s %-8s %s\n",
				n, tc.Name, tc.Method, types.Verdict(tc.ExpectBlocked), reporter.TruncateString(tc.Payload(), 60))
		}
	}

	fmt.Fprintf(w, "\n%d tests in %d sections\n", cat.Len(), len(cat.Sections))
	fmt.Fprintf(w, "Categories: %s\n", strings.Join(cat.Categories(), ", "))
}
