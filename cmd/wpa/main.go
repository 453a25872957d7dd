package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "demo":
		err = cmdDemo(os.Args[2:])
	case "dot":
		err = cmdDot(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `wpa — whole-program static analysis core

Usage:
  wpa demo [--cs] [--k <n>]                         Run the bundled toy program through PTA/ICP/dead-code/taint
  wpa dot  [--cs] [--k <n>] --out graph|pfg          Emit the call graph or PFG as Graphviz DOT
`)
}
