package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags; "dev" is the fallback for a
// plain `go build`, following the teacher's cmd/muserv convention.
var Version = "dev"

var preamble = `soundmanagerd ` + Version + `

soundmanagerd is the catalog core of a local audio-asset manager: a
persistent store, an in-memory folder/entry/tag model, a metadata probe,
and a filesystem watcher, fronted by a small CLI for manual operation.`

var rootCmd = &cobra.Command{
	Use:     "soundmanagerd",
	Short:   "soundmanagerd catalog core",
	Long:    preamble,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		if lv, err := logrus.ParseLevel(level); err == nil {
			logrus.SetLevel(lv)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}
