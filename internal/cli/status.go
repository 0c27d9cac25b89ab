package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rootfleet/waitlist/internal/domain"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status EMAIL",
		Short: "Show the email delivery state of a signup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			s, err := rt.backend.Repo.GetByEmail(cmd.Context(), domain.NormalizeEmail(args[0]))
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			enc := json.NewEncoder(rt.writer)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
}
