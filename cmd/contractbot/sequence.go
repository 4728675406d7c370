package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) sequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence",
		Short: "Print the number the next contract will get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.ValidateOffline(); err != nil {
				return err
			}
			counter, err := openCounter(c.cfg)
			if err != nil {
				return err
			}
			defer counter.Close()

			n, err := counter.Next(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
