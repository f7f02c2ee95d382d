package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mirrorkeep/mirrorkeep/replicate"
)

func wipeCmd() *cobra.Command {
	var (
		layersFlag string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "wipe <slot>",
		Short: "Destructively clear a mirror's code, secrets, and variables",
		Long:  "wipe replaces the mirror's history with a single empty commit and deletes its secrets and variables. The canonical repository is always refused.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slot must be a number: %w", err)
			}

			layers, err := parseLayers(layersFlag)
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}

			target, ok := rt.settings.TargetBySlot(slot)
			if !ok {
				return fmt.Errorf("no target configured in slot %d", slot)
			}

			if !yes {
				return fmt.Errorf("wipe of %s is destructive; re-run with --yes to confirm", target.Repo)
			}

			outcomes, err := rt.manager.WipeTargets(cmd.Context(), []replicate.TargetConfig{target}, layers, consoleSink(rt.log))
			if err != nil {
				return err
			}
			if len(outcomes) == 1 && outcomes[0].Refused {
				return replicate.ErrRefusedCanonical
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&layersFlag, "layers", "code,secrets,variables", "comma-separated layers to wipe")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive operation")
	return cmd
}

func parseLayers(flag string) ([]replicate.Layer, error) {
	var layers []replicate.Layer
	for _, part := range strings.Split(flag, ",") {
		part = strings.TrimSpace(part)
		switch replicate.Layer(part) {
		case replicate.LayerCode, replicate.LayerSecrets, replicate.LayerVariables:
			layers = append(layers, replicate.Layer(part))
		default:
			return nil, fmt.Errorf("unknown layer %q (code, secrets, variables)", part)
		}
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers selected")
	}
	return layers, nil
}
