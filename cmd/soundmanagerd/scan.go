package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/fidelxyz/soundmanager/internal/catalog"
	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan <base-path>",
	Short: "Run a one-shot manual scan and report the resulting change",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default(args[0])
		c, err := catalog.Open(cfg, stdoutEmitter{}, nil)
		if err != nil {
			fmt.Printf("could not open catalog: %v\n", err)
			os.Exit(1)
		}
		defer c.Close()

		before := len(c.Model().Entries())
		if err := c.Refresh(); err != nil {
			fmt.Printf("scan failed: %v\n", err)
			os.Exit(1)
		}
		after := len(c.Model().Entries())

		fmt.Printf("entries before: %d\n", before)
		fmt.Printf("entries after:  %d\n", after)
		fmt.Printf("delta:          %+d\n\n", after-before)
		c.WriteStatus(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
