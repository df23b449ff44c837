package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/bd-trello/internal/trello"
)

var parseURLCmd = &cobra.Command{
	Use:   "parse-url <board-url>",
	Short: "Extract the board ID from a Trello board URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := trello.ParseBoardURL(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"board_id": id})
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseURLCmd)
}
