package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uiscout/internal/store"
)

var relearnBackup bool

// relearnCmd clears an app's learned graph so the next exploration starts fresh
var relearnCmd = &cobra.Command{
	Use:   "relearn [app]",
	Short: "Forget an app's learned UI so it can be explored fresh",
	Long: `Deletes everything learned about an app - screens, elements, edges,
commands - while keeping the app registered, and resets its exploration
status. Use this after an app update changed its UI too much for the
fingerprints to survive.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelearn,
}

// deleteCmd removes an app entirely
var deleteCmd = &cobra.Command{
	Use:   "delete [app]",
	Short: "Delete an app and everything learned about it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	relearnCmd.Flags().BoolVar(&relearnBackup, "backup", false, "Back up the database first")
}

func runRelearn(cmd *cobra.Command, args []string) error {
	appID := args[0]

	// Back up before opening the store so the copy sees a settled file.
	if relearnBackup {
		path, err := store.CreateBackup(cfg.Store.DatabasePath)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Backup written to %s\n", path)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.ResetApp(appID); err != nil {
		return err
	}
	fmt.Printf("Forgot everything about %s. Run 'scout explore %s' to relearn it.\n", appID, appID)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	appID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.DeleteApp(appID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", appID)
	return nil
}
