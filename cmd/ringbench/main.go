// Command ringbench drives the ring buffer core with synthetic
// producers and a single consumer, and reports elapsed time and
// throughput.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ringbench",
		Short: "Benchmark and serve metrics for the ringbus disruptor core",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeMetricsCmd())
	return root
}
