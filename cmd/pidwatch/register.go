package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ja7ad/pidwatch/pkg/client"
	"github.com/ja7ad/pidwatch/pkg/system/util"
)

func registerCmd() *cobra.Command {
	var (
		addr string
		tree bool
	)
	cmd := &cobra.Command{
		Use:   "register PID|PID..PID...",
		Short: "Register processes with a running agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pids, err := util.ParsePIDs(args)
			if err != nil {
				return err
			}
			if tree {
				pids = expandTrees(pids)
			}

			c := client.New(addr)
			for _, pid := range pids {
				if err := c.Register(cmd.Context(), pid); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %d process(es)\n", len(pids))
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", defaultAddr, "agent HTTP address")
	cmd.Flags().BoolVar(&tree, "tree", false, "also register every descendant")
	return cmd
}

func statusCmd() *cobra.Command {
	var (
		addr string
		max  int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the agent's table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := client.New(addr).Status(cmd.Context(), max)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", defaultAddr, "agent HTTP address")
	cmd.Flags().IntVar(&max, "max", -1, "print at most this many bytes (-1 = all)")
	return cmd
}
