// Command biblioteca is the terminal front-end for the library catalog. It
// owns no business rules; every operation goes through the catalog engine.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "biblioteca",
	Short: "Manage a library catalog of categories, users, books, and loans",
	Long: `Biblioteca manages a library catalog stored in a local SQLite database:
book categories, registered users, the books themselves, and the loans
that move books between available and lent out.`,
	// Do not print usage on errors returned by subcommands.
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "path to the SQLite database (overrides config)")

	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(loanCmd)
}

// openEngine opens the engine on the configured database path. The caller
// must close it.
func openEngine() (*library.Engine, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	eng, err := library.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return eng, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
