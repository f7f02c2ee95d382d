package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard <slot>",
		Short: "Provision a new mirror: full history, secrets, variables, workflow posture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slot must be a number: %w", err)
			}

			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}

			target, ok := rt.settings.TargetBySlot(slot)
			if !ok {
				return fmt.Errorf("no target configured in slot %d", slot)
			}

			_, err = rt.manager.OnboardTarget(cmd.Context(), target, consoleSink(rt.log))
			return err
		},
	}
}
