package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var testCmd = &cobra.Command{
	Use:   "test <config-file> <base-path>",
	Short: "Check a configuration file for completeness and consistency",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Test(args[0], args[1]); err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		fmt.Println("configuration ok")
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
