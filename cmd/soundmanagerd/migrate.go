package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd is a stub standing in for the migrate_database command: the
// importer from a foreign tagging tool is out of scope (SPEC_FULL.md §1,
// §5.7), so it only reports that it is not implemented.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import tags from another tagging tool (not implemented)",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("migrate: not implemented, importing from another tagging tool is out of scope")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
