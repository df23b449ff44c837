package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bd-trello version",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"version": Version})
			return
		}
		fmt.Printf("bd-trello %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
