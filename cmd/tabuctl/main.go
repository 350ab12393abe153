package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/history"
	"github.com/dgallion1/tabusync/internal/normalize"
	"github.com/dgallion1/tabusync/internal/parser"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "tabuctl",
		Short:   "Operator tools for registry extract sync",
		Version: version,
	}
	rootCmd.PersistentFlags().Bool("verbose", false, "log parser diagnostics to stderr")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(linesCmd())
	rootCmd.AddCommand(accountsCmd())
	rootCmd.AddCommand(runsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.pdf>",
		Short: "Parse a registry extract and print its records as JSON",
		Long: `Parse a registry extract offline and print the records a sync would
write. By default owners are merged and shares converted to percentages;
--raw prints the parser output unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")
			log := logger(cmd)

			doc, err := parser.New(log).ParseFile(args[0])
			if err != nil {
				return err
			}
			if raw {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			return writeJSON(cmd.OutOrStdout(), normalize.New(log).Document(doc))
		},
	}
	cmd.Flags().Bool("raw", false, "print unmerged parser records")
	return cmd
}

func linesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lines <file.pdf>",
		Short: "Print the grouped text lines of a PDF with fragment positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := parser.ExtractFragments(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, line := range parser.GroupPages(pages) {
				parts := make([]string, 0, len(line.Fragments))
				for _, f := range line.Fragments {
					parts = append(parts, fmt.Sprintf("[%.0f-%.0f] %s", f.Left, f.Right, f.Text))
				}
				fmt.Fprintf(out, "%4d y=%.1f  %s\n", i, line.Y, strings.Join(parts, "  "))
			}
			return nil
		},
	}
}

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts <accounts.yaml>",
		Short: "Validate an accounts file and list its accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accts, err := config.LoadAccounts(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range accts.IDs() {
				a, _ := accts.Lookup(id)
				fmt.Fprintf(out, "%s\t%s\tunits=%d subunits=%d owners=%d\n",
					id, a.Name, a.Units.BoardID, a.Subunits.BoardID, a.Owners.BoardID)
			}
			return nil
		},
	}
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <account-id>",
		Short: "List recent sync runs of an account from the history database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(context.Background(), args[0], limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().String("db", "tabusync.db", "history database path")
	cmd.Flags().Int("limit", 20, "maximum runs to list")
	return cmd
}
