package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rootfleet/waitlist/internal/domain"
)

func NewDrainCommand() *cobra.Command {
	var (
		batch  int
		source string
	)

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Run one bounded drain of the email queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			src := domain.EmailSource(source)
			if !src.IsValid() {
				return fmt.Errorf("--source must be trigger or cron, got %q", source)
			}
			if !cmd.Flags().Changed("batch") {
				batch = rt.backend.BatchSize
			}

			res := rt.backend.Drainer.Drain(cmd.Context(), batch, src)
			enc := json.NewEncoder(rt.writer)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "Maximum jobs to process (default from DRAIN_BATCH_SIZE)")
	cmd.Flags().StringVar(&source, "source", string(domain.SourceTrigger), "Provenance recorded on touched rows: trigger or cron")

	return cmd
}
