package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) sweepCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "sweep-drafts",
		Short: "Delete uploads never attached to a submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			age := olderThan
			if age <= 0 {
				age = c.app.Config.DraftMaxAge
			}
			res, err := c.app.Files.SweepDrafts(cmd.Context(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d drafts older than %s and %d spent nonces\n", res.Drafts, age, res.Nonces)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "draft age to delete (default DRAFT_MAX_AGE)")
	return cmd
}
