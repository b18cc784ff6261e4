package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/pidwatch/pkg/client"
)

func busyCmd() *cobra.Command {
	var (
		addr   string
		expire time.Duration
	)
	cmd := &cobra.Command{
		Use:   "busy",
		Short: "Register this process and burn CPU for a while",
		Long: `busy registers its own PID with a running agent, spins on the CPU until
--expire elapses and prints the agent's table. Useful to watch the CPU time
column grow and the entry disappear after exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(addr)
			pid := os.Getpid()
			if err := c.Register(cmd.Context(), pid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered pid %d, busy for %s\n", pid, expire)

			ctx, cancel := context.WithTimeout(cmd.Context(), expire)
			defer cancel()
			n := burn(ctx)

			b, err := c.Status(cmd.Context(), -1)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "done after %d rounds\n%s", n, b)
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", defaultAddr, "agent HTTP address")
	cmd.Flags().DurationVarP(&expire, "expire", "e", 10*time.Second, "how long to keep the CPU busy")
	return cmd
}

var sink uint64

// burn computes factorials until ctx is done and returns the rounds run.
func burn(ctx context.Context) uint64 {
	var rounds uint64
	for {
		select {
		case <-ctx.Done():
			return rounds
		default:
		}
		f := uint64(1)
		for i := uint64(1); i <= 20; i++ {
			f *= i
		}
		sink += f
		rounds++
	}
}
