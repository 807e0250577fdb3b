package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.AddCommand(targetsEnableCmd)
	targetsCmd.AddCommand(targetsDisableCmd)
	targetsCmd.AddCommand(targetsAddFolderCmd)
	targetsCmd.AddCommand(targetsRemoveCmd)
	targetsCmd.AddCommand(targetsSkillCmd)
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List and manage sync targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		targets := m.Targets()
		if len(targets) == 0 {
			fmt.Println("No targets detected. Add one with 'agentloom targets add-folder <path>'.")
			return nil
		}

		rows := make([][]string, 0, len(targets))
		for _, t := range targets {
			state := "enabled"
			if !t.Enabled {
				state = "disabled"
			}
			source := "detected"
			if !t.AutoDetected {
				source = "custom"
			}
			rows = append(rows, []string{t.ID, t.Name, state, source, t.SkillsPath})
		}
		printTable([]string{"ID", "NAME", "STATE", "SOURCE", "PATH"}, rows)
		return nil
	},
}

var targetsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a target and sync it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.SetTargetEnabled(args[0], true); err != nil {
			return err
		}
		if _, err := m.SyncTarget(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Enabled target '%s'\n", mark(true), args[0])
		return nil
	},
}

var targetsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a target and remove its skill links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.SetTargetEnabled(args[0], false); err != nil {
			return err
		}
		fmt.Printf("%s Disabled target '%s'\n", mark(true), args[0])
		return nil
	},
}

var targetsAddFolderCmd = &cobra.Command{
	Use:     "add-folder <path>",
	Aliases: []string{"add"},
	Short:   "Register an arbitrary directory as a sync target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		t, err := m.AddFolderTarget(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s Added target '%s' for %s\n", mark(true), t.ID, t.SkillsPath)
		return nil
	},
}

var targetsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a custom target and its skill links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.RemoveTarget(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Removed target '%s'\n", mark(true), args[0])
		return nil
	},
}

var targetsSkillCmd = &cobra.Command{
	Use:   "skill <target-id> <skill> <on|off>",
	Short: "Enable or disable one skill on one target",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[2] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("expected 'on' or 'off', got '%s'", args[2])
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.SetSkillOverride(args[0], args[1], enabled); err != nil {
			return err
		}
		fmt.Printf("%s Skill '%s' is now %s on target '%s'\n",
			mark(true), args[1], args[2], args[0])
		return nil
	},
}
