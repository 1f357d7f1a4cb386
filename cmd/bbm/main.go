// Command bbm supervises a long-running external quantum-chemistry engine
// over a local control-plane socket, and lets independent clients drive it
// one request at a time.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ybyygu/vasp-tools/internal/logger"
)

var logLevel string
var logFile string

func main() {
	root := &cobra.Command{
		Use:           "bbm",
		Short:         "supervise and drive a black-box quantum-chemistry engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logLevel, logFile)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file in addition to stdout")

	root.AddCommand(serverCmd(), clientCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
