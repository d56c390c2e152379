package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fathomvfx/showsync/internal/cli"
)

func main() {
	ledgerPath := flag.String("ledger", "", "Ledger database path override (defaults to config)")
	logLevel := flag.String("log-level", os.Getenv("SHOWSYNC_LOG_LEVEL"), "Log level (debug, info, warn, error)")
	flag.Parse()

	opts := cli.DaemonOptions{
		LedgerPath: *ledgerPath,
		LogLevel:   *logLevel,
	}

	if err := cli.ServeDaemon(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
