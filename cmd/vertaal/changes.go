package main

import (
	"fmt"

	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/trackchanges"
	"github.com/spf13/cobra"
)

type changesOptions struct {
	search string
	exact  bool
	limit  int
}

func newChangesCmd() *cobra.Command {
	opts := changesOptions{}
	cmd := &cobra.Command{
		Use:   "changes <file.docx|file.tsv>...",
		Short: "Browse tracked-change examples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanges(cmd, args, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.search, "search", "", "Only show pairs containing this text")
	cmd.Flags().BoolVar(&opts.exact, "exact", false, "Require --search to equal one side of the pair")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Show at most this many pairs (0 = all)")
	return cmd
}

func runChanges(cmd *cobra.Command, args []string, opts *changesOptions) error {
	m := trackchanges.NewMatcher()
	loaded := 0
	for _, path := range args {
		n, err := m.Load(path)
		if err != nil {
			logger.Warn("Could not load tracked changes", "path", path, "error", err)
			continue
		}
		loaded++
		logger.Debug("Loaded tracked changes", "path", path, "pairs", n)
	}
	if loaded == 0 {
		return fmt.Errorf("no tracked-changes file could be loaded")
	}

	pairs := m.Search(opts.search, opts.exact)
	out := cmd.OutOrStdout()
	if opts.limit > 0 && opts.limit < len(pairs) {
		pairs = pairs[:opts.limit]
	}
	fmt.Fprintf(out, "%d pairs from %d files, %d shown\n", m.Len(), len(m.Files()), len(pairs))
	for i, p := range pairs {
		fmt.Fprintf(out, "\n#%d\n  Original: %s\n  Final:    %s\n", i+1, p.Original, p.Final)
	}
	return nil
}

