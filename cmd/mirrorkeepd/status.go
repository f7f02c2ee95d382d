package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorkeep/mirrorkeep/replicate"
)

// statusDocument is the rendered status output: configuration summary plus
// the persisted state with staleness applied.
type statusDocument struct {
	Enabled     bool             `json:"enabled"`
	SelfRole    replicate.Role   `json:"self_role"`
	TargetCount int              `json:"target_count"`
	State       *replicate.State `json:"state"`
	Jobs        []replicate.Job  `json:"jobs,omitempty"`
}

func statusCmd() *cobra.Command {
	var (
		withJobs bool
		probe    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show replication state for every target",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}

			if probe {
				rt.manager.ProbeTargets(cmd.Context(), rt.settings.EnabledTargets())
			}

			state, err := rt.manager.Status()
			if err != nil {
				return err
			}

			doc := statusDocument{
				Enabled:     rt.settings.Enabled,
				SelfRole:    state.SelfRole,
				TargetCount: len(rt.settings.EnabledTargets()),
				State:       state,
			}
			if withJobs {
				doc.Jobs = rt.manager.Jobs()
			}

			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withJobs, "jobs", false, "include the background job log")
	cmd.Flags().BoolVar(&probe, "probe", false, "probe target reachability before reporting")
	return cmd
}
