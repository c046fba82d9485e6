package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-sentry",
	Short: "A face recognition checkpoint with liveness and anti-spoofing checks",
	Long: `Face Sentry watches a camera feed, recognizes enrolled people and decides
whether to grant access. A positive match still has to prove liveness with a
blink before the gate opens; flat or tilted faces are rejected as spoof
attempts and an evidence frame is kept for every negative verdict.`,
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
