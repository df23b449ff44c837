// bd-trello migrates a Trello board into a bd issue database by driving
// the bd command-line tool.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/bd-trello/internal/debug"
)

var (
	verboseFlag bool
	quietFlag   bool
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "bd-trello",
	Short: "Migrate a Trello board into a bd issue database",
	Long: `bd-trello fetches a Trello board (lists, cards, checklists, comments,
attachments) and recreates it as bd issues: one issue per card, epics with
child issues for checklist cards, dependency edges for cross-referenced
cards, and native comments.

Credentials come from flags, BD_TRELLO_* environment variables, or a .env
file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func initConfig() {
	// A .env in the working directory supplies credentials for local use.
	// Real environment variables win over the file.
	_ = godotenv.Load()

	viper.SetEnvPrefix("BD_TRELLO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
