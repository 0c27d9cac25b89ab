package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rootfleet/waitlist/internal/domain"
)

func NewQueueLengthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue-length",
		Short: "Print the number of queued email jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			n, err := rt.backend.Queue.Length(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.writer, n)
			return nil
		},
	}
}

// NewEnqueueCommand re-queues the confirmation email for an existing signup,
// e.g. after a joined_queue_missing response. Rows that are no longer
// pending are rejected by the claim when the job runs.
func NewEnqueueCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "enqueue EMAIL",
		Short: "Queue the confirmation email for an existing signup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			src := domain.EmailSource(source)
			if !src.IsValid() {
				return fmt.Errorf("--source must be trigger or cron, got %q", source)
			}

			s, err := rt.backend.Repo.GetByEmail(cmd.Context(), domain.NormalizeEmail(args[0]))
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}

			job := domain.Job{
				RequestID:   uuid.NewString(),
				Email:       s.Email,
				Role:        string(s.Role),
				FleetSize:   string(s.FleetSize),
				CompanyName: s.CompanyName,
				Source:      src,
			}
			if err := rt.backend.Queue.Push(cmd.Context(), job); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.writer, "enqueued %s (rid %s)\n", s.Email, job.RequestID)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", string(domain.SourceTrigger), "Provenance tag: trigger or cron")
	return cmd
}
