package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/agentloom/pkg/manager"
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)

	createCmd.Flags().StringP("description", "d", "", "Skill description")
	showCmd.Flags().Bool("raw", false, "Print the raw document without rendering")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills in the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		skills := m.Skills()
		if len(skills) == 0 {
			fmt.Println("No skills yet. Create one with 'agentloom create <name>'.")
			return nil
		}

		m.ValidateAll()
		rows := make([][]string, 0, len(skills))
		for _, s := range skills {
			desc := s.Meta.Description
			if len(desc) > 60 {
				desc = desc[:57] + "..."
			}
			rows = append(rows, []string{
				s.FolderName,
				statusLabel(s.Status.Kind()),
				manager.FormatSize(s.SizeBytes),
				desc,
			})
		}
		printTable([]string{"NAME", "STATUS", "SIZE", "DESCRIPTION"}, rows)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Display a skill's document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		s, err := m.Get(args[0])
		if err != nil {
			return err
		}

		content, err := s.RawContent()
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Print(content)
			return nil
		}
		fmt.Print(renderMarkdown(content))
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new skill and link it everywhere",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		if description == "" {
			description = "No description provided"
		}

		s, err := m.Create(args[0], description)
		if err != nil {
			return err
		}
		fmt.Printf("%s Created skill '%s' at %s\n", mark(true), s.FolderName, s.Path)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a skill and unlink it from every target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted skill '%s'\n", mark(true), args[0])
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a skill and relink it on every target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		s, err := m.Rename(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s Renamed '%s' to '%s'\n", mark(true), args[0], s.FolderName)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search skills by name and description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		matches := m.Search(strings.Join(args, " "))
		if len(matches) == 0 {
			fmt.Println("No matching skills.")
			return nil
		}

		rows := make([][]string, 0, len(matches))
		for _, s := range matches {
			rows = append(rows, []string{s.FolderName, s.Meta.Description})
		}
		printTable([]string{"NAME", "DESCRIPTION"}, rows)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the repository and its targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		stats := m.Stats()
		heading("Repository")
		fmt.Printf("  path:    %s\n", m.Paths().SkillsRoot())
		fmt.Printf("  skills:  %d (%d valid, %d warnings, %d invalid)\n",
			stats.SkillCount, stats.ValidCount, stats.WarningCount, stats.InvalidCount)
		fmt.Printf("  size:    %s\n", manager.FormatSize(stats.TotalSizeBytes))
		fmt.Printf("  targets: %d (%d enabled)\n", stats.TargetCount, stats.EnabledTargets)
		return nil
	},
}
