package cmd

import (
	"github.com/spf13/cobra"
)

var isDevEnv bool

var rootCmd = &cobra.Command{
	Use:   "panic-server",
	Short: "panic-server is the backend for the panic personal-safety app",
	Long: `panic-server is the backend for the panic personal-safety app.

Users register an account, designate trusted contacts by phone number,
and report incidents. Trusted contacts are registered with a
notification service & alerted by SMS when an incident is reported.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")
}
