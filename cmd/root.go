// Package cmd implements the attendanced CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendanced",
	Short: "Face-recognition attendance backend",
	Long: `Attendanced is the backend for a webcam-based employee attendance system.
Employees check in and out with their face; admins manage employees,
reports and the work-hour policy over the HTTP API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
