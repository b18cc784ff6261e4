package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const defaultAddr = "127.0.0.1:9137"

func main() {
	root := &cobra.Command{
		Use:   "pidwatch",
		Short: "Per-process CPU time registry",
		Long: `pidwatch keeps a table of registered processes and refreshes the user CPU
time of each one on a fixed interval. Processes that exit are dropped from the
table on the next pass.

The table is served over HTTP and, on Linux, as a FUSE file:

  PID<pid>: <cpu_time>

with cpu_time in clock ticks.

* GitHub: https://github.com/ja7ad/pidwatch

Examples:
  pidwatch serve --interval 5s --mount /mnt/pidwatch
  pidwatch register 1234 2000..2010
  echo $$ > /mnt/pidwatch/status && cat /mnt/pidwatch/status
  pidwatch busy --expire 10s`,
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		registerCmd(),
		statusCmd(),
		busyCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
