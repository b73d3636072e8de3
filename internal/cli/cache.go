package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karupanerura/snapshot-cache/internal/render"
)

func newCacheCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the booking cache.",
	}
	cmd.AddCommand(newCacheStatusCmd(r), newCacheClearCmd(r))
	return cmd
}

func newCacheStatusCmd(r *runner) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the cache currently holds.",
		Long: `Show the persisted booking and both of its expiries without contacting the
booking service: the expiry of the booking itself and the cache marker that
triggers a background refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := r.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			st, err := a.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read cache: %w", err)
			}
			if output == render.JSONOut {
				return render.JSON(cmd.OutOrStdout(), st)
			}
			return render.Status(cmd.OutOrStdout(), st, r.renderOptions(a))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", render.TableOut, "output format: table or json")
	return cmd
}

func newCacheClearCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached booking.",
		Long:  `Remove the cached booking. The next read fetches from the booking service as on a cold start.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := r.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if err := a.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			cmd.Printf("Cleared %s from the %s cache.\n", r.cfg.CacheKey, r.cfg.CacheBackend)
			return nil
		},
	}
}
