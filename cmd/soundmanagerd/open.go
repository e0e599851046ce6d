package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/fidelxyz/soundmanager/internal/catalog"
	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var openCmd = &cobra.Command{
	Use:   "open <base-path>",
	Short: "Open an existing catalog and print a summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default(args[0])
		c, err := catalog.Open(cfg, stdoutEmitter{}, nil)
		if err != nil {
			fmt.Printf("could not open catalog: %v\n", err)
			os.Exit(1)
		}
		defer c.Close()

		m := c.Model()
		fmt.Printf("base path:   %s\n", cfg.BasePath)
		fmt.Printf("entries:     %d\n", len(m.Entries()))
		fmt.Printf("root tags:   %d\n", len(m.ChildTags(catalog.RootID)))
		fmt.Printf("root folders: %d\n", len(m.ChildFolders(catalog.RootID)))
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
