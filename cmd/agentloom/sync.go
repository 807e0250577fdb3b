package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/agentloom/pkg/manager"
	"github.com/arthur-debert/agentloom/pkg/syncer"
)

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(verifyCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [target]",
	Short: "Reconcile targets with the skill repository",
	Long: `Create missing skill symlinks and remove stale ones on every enabled
target, or on a single target when one is named. Files the syncer does
not own are never touched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		var results []syncer.Result
		if len(args) == 1 {
			result, err := m.SyncTarget(args[0])
			if err != nil {
				return err
			}
			results = []syncer.Result{result}
		} else {
			results = m.SyncAll()
			manager.SortResults(results)
		}

		failed := 0
		for _, r := range results {
			fmt.Printf("%s %s: %d created, %d removed, %d unchanged\n",
				mark(r.Success()), r.TargetName,
				len(r.Created), len(r.Removed), len(r.Unchanged))
			for _, e := range r.Errors {
				if e.Skill != "" {
					fmt.Printf("    %s: %s\n", e.Skill, e.Message)
				} else {
					fmt.Printf("    %s\n", e.Message)
				}
			}
			if !r.Success() {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d targets had sync errors", failed)
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report dangling skill links without changing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		dangling, err := m.Verify()
		if err != nil {
			return err
		}
		if len(dangling) == 0 {
			fmt.Println("All links are healthy.")
			return nil
		}

		for targetID, names := range dangling {
			fmt.Printf("%s %s:\n", mark(false), targetID)
			for _, name := range names {
				fmt.Printf("    %s (dangling)\n", name)
			}
		}
		fmt.Println(dim("Run 'agentloom sync' to repair."))
		return nil
	},
}
