package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karupanerura/snapshot-cache/internal/render"
)

func newShowCmd(r *runner) *cobra.Command {
	var (
		refresh bool
		output  string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the ship booking.",
		Long: `Show the ship booking, using the cache when it is fresh.

With --refresh the booking service is always asked for a fresh copy and a failure
is reported instead of falling back to the cached copy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if output != render.TableOut && output != render.JSONOut {
				return fmt.Errorf("invalid output %q: must be %s or %s", output, render.TableOut, render.JSONOut)
			}

			a, err := r.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			s, err := a.Get(cmd.Context(), refresh)
			if err != nil {
				return fmt.Errorf("failed to load booking: %w", err)
			}
			if output == render.JSONOut {
				return render.JSON(cmd.OutOrStdout(), s)
			}
			return render.Snapshot(cmd.OutOrStdout(), s, r.renderOptions(a))
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and fetch a fresh copy")
	cmd.Flags().StringVarP(&output, "output", "o", render.TableOut, "output format: table or json")
	return cmd
}
