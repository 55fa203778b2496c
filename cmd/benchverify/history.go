package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiowebux/benchverify/internal/cli"
	"github.com/studiowebux/benchverify/internal/filter"
)

var (
	historyLimit  int
	historyOutput string
	historyFilter string
	historyQuery  string
	historyClear  bool
	historyDelete string
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List recorded verification runs",
	Long: `List recorded verification runs, newest first.

Examples:
  benchverify history --limit 5
  benchverify history 3f0c... --output yaml
  benchverify history --query "[?status=='ERROR'].url"
  benchverify history --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, expr := range []string{historyFilter, historyQuery} {
			if expr != "" && !filter.IsValidJMESPath(expr) {
				return fmt.Errorf("invalid JMESPath expression %q", expr)
			}
		}

		mgr, err := openHistory()
		if err != nil {
			return err
		}
		defer mgr.Close()

		switch {
		case historyClear:
			if err := mgr.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "History cleared")
			return nil
		case historyDelete != "":
			if err := mgr.Delete(historyDelete); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Deleted run %s\n", historyDelete)
			return nil
		}

		var result any
		if len(args) == 1 {
			run, err := mgr.Get(args[0])
			if err != nil {
				return err
			}
			result = run
		} else {
			runs, err := mgr.List(historyLimit)
			if err != nil {
				return err
			}
			result = runs
		}

		if historyFilter != "" || historyQuery != "" {
			result, err = filter.Apply(result, historyFilter, historyQuery)
			if err != nil {
				return err
			}
		}
		return cli.Print(os.Stdout, result, historyOutput)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", cli.FormatText, "Output format (json/yaml/text)")
	historyCmd.Flags().StringVar(&historyFilter, "filter", "", "JMESPath filter applied before --query")
	historyCmd.Flags().StringVarP(&historyQuery, "query", "q", "", "JMESPath query")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete every recorded run")
	historyCmd.Flags().StringVar(&historyDelete, "delete", "", "Delete the run with this id")
}
