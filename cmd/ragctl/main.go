// Command ragctl is the CLI surface of spec §6: one independently
// runnable subcommand per pipeline stage (chunk/embed/upsert/search/
// rerank/inventory/purge), reading and writing the NDJSON intermediate
// files a crashed run resumes from.
//
// Grounded on the pack's cobra+viper CLI shape (RedClaus-cortex's
// cortex-coder-agent), since the teacher itself exposes no standalone
// CLI — cmd/server ran a long-lived Connect-RPC service via fx, which
// has no subcommand surface to adapt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hsn0918/ragctl/internal/logging"
)

// Exit codes per spec §6.
const (
	exitSuccess = 0
	exitRuntime = 1
	exitUsage   = 2
)

var configPath string

// usageError marks an error as a CLI usage mistake (bad args/flags)
// rather than a runtime failure, so exitCodeFor can tell them apart.
type usageError struct{ err error }

func (u *usageError) Error() string    { return u.err.Error() }
func (u *usageError) Unwrap() error    { return u.err }
func (u *usageError) IsUsageError() bool { return true }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	if err := logging.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "ragctl: failed to init logger:", err)
	}
	defer logging.Sync()

	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Ingest and retrieve office documents through the RAG pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "directory containing an optional config.yaml")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(
		newChunkCmd(),
		newEmbedCmd(),
		newUpsertCmd(),
		newSearchCmd(),
		newRerankCmd(),
		newInventoryCmd(),
		newPurgeCmd(),
	)

	if err := root.Execute(); err != nil {
		logging.Get().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "ragctl:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a cobra/runtime error to spec §6's exit codes.
// Usage errors are the ones built by usageErrorf (each subcommand's
// argument-count check) and flag-parsing errors, which the root command's
// flag error func wraps in usageError; everything else, including cobra's
// plain "unknown command" error, is a runtime failure.
func exitCodeFor(err error) int {
	if usageErr, ok := err.(interface{ IsUsageError() bool }); ok && usageErr.IsUsageError() {
		return exitUsage
	}
	return exitRuntime
}
