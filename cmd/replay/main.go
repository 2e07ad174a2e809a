// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/motion_tracker/internal/app"
)

func main() {
	input := flag.String("input", "", "path to a JSONL pose log to replay")
	flag.Parse()

	if *input == "" {
		log.Fatal("usage: replay -input <pose_log.jsonl>")
	}

	// Reports go to stdout as JSONL; pipe into jq or a file.
	if err := app.RunReplay(*input, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
