package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chess-arena/internal/archive"
	"github.com/vovakirdan/chess-arena/internal/config"
)

var flagRecent int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archived-game statistics",
	Long: `Display aggregate counts and the most recently archived games
from the archive index.

Examples:
  arena stats
  arena stats --recent 20`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&flagRecent, "recent", 10, "Number of recent games to list")
}

func runStats(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := archive.OpenStore(cfg.Paths.IndexDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening archive index: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	games, moves, err := store.TotalGames()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading totals: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Archived games")
	fmt.Println()
	fmt.Printf("  Total games: %d\n", games)
	fmt.Printf("  Total moves: %d\n", moves)

	counts, err := store.VariantCounts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading variant counts: %v\n", err)
		os.Exit(1)
	}
	if len(counts) > 0 {
		fmt.Println()
		fmt.Println("  By variant:")
		variants := make([]string, 0, len(counts))
		for v := range counts {
			variants = append(variants, v)
		}
		sort.Strings(variants)
		for _, v := range variants {
			fmt.Printf("    %-20s %d\n", v, counts[v])
		}
	}

	recent, err := store.RecentGames(flagRecent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading recent games: %v\n", err)
		os.Exit(1)
	}
	if len(recent) == 0 {
		fmt.Println()
		fmt.Println("No games archived yet.")
		return
	}

	fmt.Println()
	fmt.Printf("  %-7s  %-14s  %-24s  %-8s  %-7s  %s\n", "Game", "Variant", "Players", "Result", "Moves", "Concluded")
	fmt.Printf("  %-7s  %-14s  %-24s  %-8s  %-7s  %s\n", "----", "-------", "-------", "------", "-----", "---------")
	for _, e := range recent {
		players := fmt.Sprintf("%s vs %s", e.White, e.Black)
		fmt.Printf("  %-7s  %-14s  %-24s  %-8s  %-7d  %s\n",
			e.GameID, e.Variant, players, e.Result, e.MoveCount,
			e.ConcludedAt.Format("2006-01-02 15:04"))
	}
}
