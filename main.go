package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/intervue/interview-service/app"
	"github.com/intervue/interview-service/config"
	"github.com/intervue/interview-service/repository"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "interview-service",
		Short: "Mock interview practice service",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")

	rootCmd.AddCommand(serveCmd(), cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the interview API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete session documents past the retention window and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			repo, err := repository.New(cfg.Session.DataDir)
			if err != nil {
				return err
			}
			removed, err := repo.CleanupOlderThan(cfg.Session.Retention)
			if err != nil {
				return err
			}
			logrus.WithField("removed", removed).Info("cleanup complete")
			return nil
		},
	}
}
