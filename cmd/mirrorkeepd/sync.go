package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorkeep/mirrorkeep/replicate"
)

func syncCmd() *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Propagate to every enabled target, blocking until done",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			sink := consoleSink(rt.log)
			targets := rt.settings.EnabledTargets()
			if len(targets) == 0 {
				return fmt.Errorf("no enabled replication targets configured")
			}

			switch layer {
			case "":
				_, err = rt.manager.PropagateAll(cmd.Context(), sink)
			case string(replicate.LayerCode):
				err = rt.manager.PropagateCode(cmd.Context(), targets, sink)
			case string(replicate.LayerSecrets):
				err = rt.manager.PropagateSecrets(cmd.Context(), targets, sink)
			case string(replicate.LayerVariables):
				err = rt.manager.PropagateVariables(cmd.Context(), targets, sink)
			default:
				return fmt.Errorf("unknown layer %q (code, secrets, variables)", layer)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "sync a single layer (code, secrets, variables); default all")
	return cmd
}
