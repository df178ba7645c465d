package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "spendlens",
		Short:        "Telegram assistant that reads receipts and tracks spending",
		SilenceUsage: true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
