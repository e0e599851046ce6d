package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/fidelxyz/soundmanager/internal/catalog"
	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var createCmd = &cobra.Command{
	Use:   "create <base-path>",
	Short: "Create a new catalog at base-path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default(args[0])
		c, err := catalog.Create(cfg, stdoutEmitter{}, nil)
		if err != nil {
			fmt.Printf("could not create catalog: %v\n", err)
			os.Exit(1)
		}
		defer c.Close()
		fmt.Printf("catalog created at '%s'\n", cfg.BasePath)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
