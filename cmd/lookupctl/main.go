package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-lookup/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
