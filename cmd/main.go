package main

import (
	"github.com/spf13/cobra"
	"lsf-finetune-launcher/cmd/app"
)

func main() {
	rootCmd := app.NewLauncherCommand()
	if err := rootCmd.Execute(); err != nil {
		cobra.CheckErr(err)
	}
}
