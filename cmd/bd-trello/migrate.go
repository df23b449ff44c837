package main

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/bd-trello/internal/beadscli"
	"github.com/steveyegge/bd-trello/internal/convert"
	"github.com/steveyegge/bd-trello/internal/ratelimit"
	"github.com/steveyegge/bd-trello/internal/statusmap"
	"github.com/steveyegge/bd-trello/internal/trello"
)

var (
	migrateBoard       string
	migrateKey         string
	migrateToken       string
	migrateDB          string
	migrateBin         string
	migrateDryRun      bool
	migrateSnapshot    string
	migrateStatusMap   string
	migrateRate        float64
	migrateBurst       int
	migrateInsecureTLS bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a Trello board into bd",
	Long: `Migrate fetches the board and creates one bd issue per card. Cards with
checklists become epics with one child task per item. Card URLs found in
descriptions, attachments, and comments are rewritten to issue references
and recorded as dependency edges.

With --snapshot, fetched data is saved to (or loaded from) the given path
so re-runs skip the Trello API entirely. With --dry-run, no bd process is
ever spawned.`,
	Example: `  bd-trello migrate --board https://trello.com/b/AbCd1234/my-board
  bd-trello migrate --board AbCd1234 --dry-run
  bd-trello migrate --board AbCd1234 --snapshot board.json --db ./beads.db`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateBoard, "board", "b", "", "Board ID or URL (required)")
	migrateCmd.Flags().StringVar(&migrateKey, "key", "", "Trello API key (env: BD_TRELLO_KEY)")
	migrateCmd.Flags().StringVar(&migrateToken, "token", "", "Trello API token (env: BD_TRELLO_TOKEN)")
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "bd database path override")
	migrateCmd.Flags().StringVar(&migrateBin, "bd-bin", "bd", "Path to the bd binary")
	migrateCmd.Flags().BoolVarP(&migrateDryRun, "dry-run", "n", false, "Convert without invoking bd")
	migrateCmd.Flags().StringVar(&migrateSnapshot, "snapshot", "", "Snapshot file path (load if present, save after fetch)")
	migrateCmd.Flags().StringVar(&migrateStatusMap, "status-mapping", "", "JSON file overriding list-name status keywords")
	migrateCmd.Flags().Float64Var(&migrateRate, "rate", ratelimit.DefaultRate, "Sustained Trello requests per second")
	migrateCmd.Flags().IntVar(&migrateBurst, "burst", ratelimit.DefaultBurst, "Trello request burst capacity")
	migrateCmd.Flags().BoolVar(&migrateInsecureTLS, "insecure", false, "Skip TLS certificate verification")

	for _, key := range []string{"board", "key", "token", "db", "snapshot", "status-mapping"} {
		_ = viper.BindPFlag(key, migrateCmd.Flags().Lookup(key))
	}

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	board := viper.GetString("board")
	if board == "" {
		return fmt.Errorf("a board ID or URL is required (--board or BD_TRELLO_BOARD)")
	}

	boardID := board
	if strings.Contains(board, "trello.com") || strings.Contains(board, "/") {
		parsed, err := trello.ParseBoardURL(board)
		if err != nil {
			return err
		}
		boardID = parsed
	}

	key := viper.GetString("key")
	token := viper.GetString("token")
	snapshot := viper.GetString("snapshot")
	if key == "" || token == "" {
		// A readable snapshot makes credentials unnecessary.
		if snapshot == "" {
			return fmt.Errorf("trello credentials are required (--key/--token or BD_TRELLO_KEY/BD_TRELLO_TOKEN)")
		}
		if _, err := os.Stat(snapshot); err != nil {
			return fmt.Errorf("trello credentials are required when no snapshot exists at %s", snapshot)
		}
	}

	client := trello.NewClient(key, token)
	client.Limiter = ratelimit.New(migrateRate, migrateBurst)
	if migrateInsecureTLS {
		client.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	mapper := statusmap.New()
	if path := viper.GetString("status-mapping"); path != "" {
		var err error
		mapper, err = statusmap.NewWithOverrides(path)
		if err != nil {
			return err
		}
	}

	writer, err := beadscli.NewCLIWriter(migrateBin, viper.GetString("db"), migrateDryRun)
	if err != nil {
		return err
	}

	engine := convert.NewEngine(client, writer, mapper)
	engine.DryRun = migrateDryRun
	engine.SnapshotPath = snapshot

	if migrateDryRun {
		color.Yellow("Dry run: no issues will be created")
	}

	stats, err := engine.Run(cmd.Context(), boardID)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(struct {
			*convert.Stats
			BrokenRefs []string `json:"broken_refs,omitempty"`
		}{stats, stats.BrokenRefs()})
	}
	printSummary(stats)
	return nil
}

func printSummary(stats *convert.Stats) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if stats.IssuesCreated == stats.IssuesAttempted {
		fmt.Printf("%s Migration complete\n", green("✓"))
	} else {
		fmt.Printf("%s Migration finished with failures\n", yellow("⚠"))
	}
	fmt.Print(stats.Report())
}
