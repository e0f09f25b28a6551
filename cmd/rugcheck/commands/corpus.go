package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/corpus"
	"github.com/54b3r/rugcheck-go/internal/logging"
)

// NewCorpusCmd constructs the `rugcheck corpus` command, which loads the
// reference documents and reports how they were chunked.
func NewCorpusCmd() *cobra.Command {
	var docs []string

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Load the reference corpus and print per-document chunk counts",
		Long: `Load the reference documents (REFERENCE_DOCS, or --doc) with the configured
chunk size and overlap, and print how many chunks each produced. Documents
that cannot be read are reported as warnings.

Examples:
  rugcheck corpus
  rugcheck corpus --doc rugcheck.pdf --doc notes.md
  CHUNK_SIZE=1024 rugcheck corpus`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			settings, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("corpus: %w", err)
			}
			if len(docs) == 0 {
				docs = settings.ReferenceDocs
			}
			splitter, err := newSplitter(settings)
			if err != nil {
				return fmt.Errorf("corpus: %w", err)
			}

			c := corpus.Load(ctx, splitter, docs...)
			renderCorpus(cmd.OutOrStdout(), c)
			if c.Len() == 0 {
				return fmt.Errorf("corpus: no reference text loaded")
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&docs, "doc", nil, "Reference document path (repeatable; default REFERENCE_DOCS)")
	return cmd
}
