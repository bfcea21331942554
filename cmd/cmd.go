// Package cmd wires the scheduler core's syscall surface and
// diagnostics into a cobra CLI. Each subcommand boots a fresh kernel,
// runs a scripted scenario against it, and prints the result -- there
// is no long-lived daemon process here to send real syscalls to, so
// "ps" and "dump" demonstrate the table by building one up first.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	policyFlag string
	nprocFlag  int
	addrFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "schedcore",
	Short: "A multi-policy process scheduler and lifecycle core.",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Boot a table, run a short demo workload, and list its processes.",
	Run: func(cmd *cobra.Command, args []string) {
		RunPS(policyFlag, nprocFlag)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <pid>",
	Short: "Boot a table, fork one child, and deep-dump its state.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunDump(policyFlag, nprocFlag, args[0])
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted fork/wait/sleep/kill scenario and log each syscall's result.",
	Run: func(cmd *cobra.Command, args []string) {
		RunDemo(policyFlag, nprocFlag)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot a table and serve its live process listing over HTTP.",
	Run: func(cmd *cobra.Command, args []string) {
		RunServe(policyFlag, nprocFlag, addrFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyFlag, "policy", "RR", "scheduling policy: FCFS, RR, PBS, or MLFQ")
	rootCmd.PersistentFlags().IntVar(&nprocFlag, "nproc", 64, "process table size")
	serveCmd.Flags().StringVar(&addrFlag, "addr", ":8080", "address to serve the dashboard on")
}

// SetupCommands assembles the command tree and returns the root
// command, ready for Execute.
func SetupCommands() *cobra.Command {
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

// Execute runs the CLI, printing any error to stderr and exiting
// non-zero on failure.
func Execute() {
	if err := SetupCommands().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
