// arena is the game session coordinator for online infinite chess.
//
// Usage:
//
//	arena serve              - Start the coordinator server
//	arena stats              - Show archived-game statistics
//
// Global flags:
//
//	--config <path>  - Path to a YAML config file (default: search order)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagConfig string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Game session coordinator for online infinite chess",
	Long: `arena pairs invited players into games, relays their moves, runs the
clocks and the AFK/disconnect timers, and archives completed games.

Available commands:
  serve    - Start the coordinator server
  stats    - View archived-game statistics

Examples:
  arena serve
  arena serve --config ./configs/arena.yaml
  arena stats --recent 20`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (optional)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}
