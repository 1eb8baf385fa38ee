// Command tabsift validates, classifies and cleans tables from CSV, TSV,
// JSON, HTML and XLSX files, or serves the same over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/tabsift/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "tabsift:", err)
		os.Exit(1)
	}
}
