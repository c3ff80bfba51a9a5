// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command lectorctl is the operator command line of Lector.
package main

import (
	"fmt"
	"os"

	"github.com/taibuivan/lector/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lectorctl:", err)
		os.Exit(1)
	}
}
