package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/agentloom/pkg/importer"
	"github.com/arthur-debert/agentloom/pkg/manager"
)

var (
	importFolder    string
	importOverwrite bool
	importNoFix     bool
	importSkip      []string
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importScanCmd)
	importCmd.AddCommand(importRunCmd)

	importScanCmd.Flags().StringVar(&importFolder, "folder", "", "Scan a directory instead of the detected targets")
	importRunCmd.Flags().StringVar(&importFolder, "folder", "", "Import from a directory instead of the detected targets")
	importRunCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace repository skills on name conflicts")
	importRunCmd.Flags().BoolVar(&importNoFix, "no-fix", false, "Keep imported frontmatter exactly as found")
	importRunCmd.Flags().StringSliceVar(&importSkip, "skip", nil, "Folder names to leave out of the import")
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bring external skills into the repository",
	Long: `Find skills living in tool directories or arbitrary folders and copy
them into the repository. The originals are never modified or removed.`,
}

var importScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Preview what an import would bring in",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		found, err := discover(m)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		rows := make([][]string, 0, len(found))
		for _, d := range found {
			source := d.SourceTarget
			if source == "" {
				source = d.SourcePath
			}
			note := ""
			if d.Conflict != nil {
				note = "conflicts with existing skill"
			} else if len(d.Fixes) > 0 {
				note = fmt.Sprintf("%d frontmatter fixes", len(d.Fixes))
			}
			rows = append(rows, []string{d.FolderName, source, note})
		}
		printTable([]string{"NAME", "SOURCE", "NOTES"}, rows)
		return nil
	},
}

var importRunCmd = &cobra.Command{
	Use:   "run [name...]",
	Short: "Import discovered skills",
	Long: `Import every discovered skill, or only the named ones. Conflicting
names are reported as errors unless --overwrite is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		found, err := discover(m)
		if err != nil {
			return err
		}

		wanted := make(map[string]bool, len(args))
		for _, name := range args {
			wanted[name] = true
		}
		skipped := make(map[string]bool, len(importSkip))
		for _, name := range importSkip {
			skipped[name] = true
		}

		var selections []importer.Selection
		for _, d := range found {
			if len(wanted) > 0 && !wanted[d.FolderName] {
				continue
			}
			resolution := importer.ResolutionImport
			switch {
			case skipped[d.FolderName]:
				resolution = importer.ResolutionSkip
			case d.Conflict != nil && importOverwrite:
				resolution = importer.ResolutionOverwrite
			}
			selections = append(selections, importer.Selection{
				Discovered: d,
				Resolution: resolution,
				SkipFixes:  importNoFix,
			})
		}
		if len(selections) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		result, err := m.Import(selections)
		if err != nil {
			return err
		}

		for _, name := range result.Imported {
			fmt.Printf("%s Imported '%s'\n", mark(true), name)
		}
		for _, name := range result.Overwritten {
			fmt.Printf("%s Replaced '%s'\n", mark(true), name)
		}
		for _, name := range result.Skipped {
			fmt.Printf("- Skipped '%s'\n", name)
		}
		for _, e := range result.Errors {
			fmt.Printf("%s %s: %s\n", mark(false), e.Skill, e.Message)
		}

		if len(result.Errors) > 0 {
			return fmt.Errorf("%d skills failed to import", len(result.Errors))
		}
		return nil
	},
}

func discover(m *manager.Manager) ([]*importer.Discovered, error) {
	if importFolder != "" {
		return m.ScanFolderForImport(importFolder)
	}
	return m.ScanTargetsForImport(), nil
}
