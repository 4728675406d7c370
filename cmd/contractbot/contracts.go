package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *cli) contractsCmd() *cobra.Command {
	contracts := &cobra.Command{
		Use:   "contracts",
		Short: "Query the registry of issued contracts",
	}

	contracts.AddCommand(&cobra.Command{
		Use:   "show [number]",
		Short: "Show an issued contract by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid contract number %q", args[0])
			}

			registry, err := openRegistry(c.cfg)
			if err != nil {
				return err
			}
			if registry == nil {
				return errors.New("registry not configured (set SUPABASE_URL and SUPABASE_KEY)")
			}
			defer registry.Close()

			ct, err := registry.GetContract(cmd.Context(), number)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Number:    %s\n", ct.ContractID)
			fmt.Fprintf(out, "File:      %s\n", ct.FileName)
			fmt.Fprintf(out, "Issued:    %s\n", ct.IssuedAt.Format("02.01.2006 15:04"))
			fmt.Fprintf(out, "Customer:  %s\n", ct.CustomerName)
			fmt.Fprintf(out, "E-mail:    %s\n", ct.Email)
			fmt.Fprintf(out, "Telegram:  %s\n", ct.Telegram)
			return nil
		},
	})
	return contracts
}
