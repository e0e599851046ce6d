package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	l "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/fidelxyz/soundmanager/internal/catalog"
	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve <base-path>",
	Short: "Open a catalog and run its filesystem watcher until interrupted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default(args[0])
		c, err := catalog.Open(cfg, stdoutEmitter{}, nil)
		if err != nil {
			fmt.Printf("could not open catalog: %v\n", err)
			os.Exit(1)
		}
		defer c.Close()

		l.Infof("serving catalog at '%s', press ctrl-c to stop", cfg.BasePath)
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		l.Info("shutting down")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
