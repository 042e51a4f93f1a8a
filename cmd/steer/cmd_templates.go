package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"steer/internal/prompt"
)

var templatesDir string

// templatesCmd groups template management
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect and export prompt templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the template for each mode and where it comes from",
	RunE:  runTemplatesList,
}

var templatesExportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write the built-in templates to a directory for editing",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplatesExport,
}

func init() {
	templatesListCmd.Flags().StringVar(&templatesDir, "templates", "", "Template override directory")
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesExportCmd)
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	dir := templatesDir
	if dir == "" {
		dir = cfg.Templates.Dir
	}
	registry, err := prompt.LoadRegistry(inWorkspace(dir))
	if err != nil {
		return err
	}

	table := newSimpleTable("Templates", []string{"Mode", "Markers", "Source"})
	for _, mode := range registry.Modes() {
		t, _ := registry.Get(mode)
		table.AddRow(string(mode), strconv.Itoa(len(t.Markers())), registry.Source(mode))
	}
	fmt.Fprintln(cmd.OutOrStdout(), table.View())
	return nil
}

func runTemplatesExport(cmd *cobra.Command, args []string) error {
	dir := cfg.Templates.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	written, err := prompt.ExportDefaults(inWorkspace(dir))
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("wrote ")+path)
	}
	return nil
}
