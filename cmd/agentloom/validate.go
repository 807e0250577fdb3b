package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/agentloom/pkg/skill"
	"github.com/arthur-debert/agentloom/pkg/validator"
)

var strictFlag bool

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(fixCmd)

	validateCmd.Flags().BoolVar(&strictFlag, "strict", false, "Treat warnings as errors")
}

var validateCmd = &cobra.Command{
	Use:   "validate [name]",
	Short: "Validate skills against the skill format rules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		strict := strictFlag || m.Config().Preferences.StrictValidation

		skills := m.Skills()
		if len(args) == 1 {
			s, err := m.Get(args[0])
			if err != nil {
				return err
			}
			skills = []*skill.Skill{s}
		}

		failed := 0
		for _, s := range skills {
			status := validator.Validate(s, strict)
			fmt.Printf("%s %s: %s\n", mark(status.Kind() != skill.StatusInvalid),
				s.FolderName, statusLabel(status.Kind()))
			for _, issue := range status.Issues() {
				fmt.Printf("    [%s] %s\n", issue.Code, issue.Message)
				if issue.FixHint != "" {
					fmt.Printf("      %s\n", dim("hint: "+issue.FixHint))
				}
			}
			if status.Kind() == skill.StatusInvalid {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d skills failed validation", failed, len(skills))
		}
		return nil
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix [name]",
	Short: "Repair skill frontmatter automatically",
	Long: `Repair what can be repaired mechanically: add missing frontmatter,
fill in a missing name or description, and normalize names to the
allowed character set. Unfixable documents are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(m.Skills()))
		if len(args) == 1 {
			names = append(names, args[0])
		} else {
			for _, s := range m.Skills() {
				names = append(names, s.FolderName)
			}
		}

		fixedAny := false
		for _, name := range names {
			fixes, err := m.FixSkill(name)
			if err != nil {
				return err
			}
			if len(fixes) == 0 {
				continue
			}
			fixedAny = true
			fmt.Printf("%s %s:\n", mark(true), name)
			for _, fix := range fixes {
				fmt.Printf("    %s\n", fix)
			}
		}

		if !fixedAny {
			fmt.Println("Nothing to fix.")
		}
		return nil
	},
}
