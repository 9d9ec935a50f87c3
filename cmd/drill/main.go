package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "exercise":
		err = cmdExercise(os.Args[2:])
	case "submit":
		err = cmdSubmit(os.Args[2:])
	case "due":
		err = cmdDue(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	case "rebuild":
		err = cmdRebuild(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("drill %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Drill - Adaptive Practice for Learning Python

Usage:
  drill <command> [arguments]

Setup Commands:
  init            Initialize drill (first-time setup)
  doctor          Check system requirements
  config          Show current configuration

Exercise Commands:
  exercise list   List available lessons and exercises
  exercise info   Show exercise details
  submit          Submit an answer for an exercise

Review Commands:
  due             Show exercises due for review
  stats           Show progress statistics
  stats mastery   Show per-concept mastery
  rebuild         Recompute a card or concept from the attempt ledger

Other:
  help            Show this help message
  version         Show version information

Examples:
  drill exercise list                       # Browse exercises
  drill submit python-v1/loops/sum-list \
      --file solution.py                    # Submit a write answer
  drill due                                 # What is due for review
  drill stats mastery                       # Concept mastery overview`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
