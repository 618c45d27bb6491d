// Command mice imputes missing values in tabular files with chained
// equations and benchmarks the imputation strategies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
