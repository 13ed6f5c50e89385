// Command biteopt minimizes benchmark functions and compares the optimizer
// against a mayfly baseline.
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}
