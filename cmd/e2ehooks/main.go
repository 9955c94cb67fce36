// Package main is the e2ehooks command: the global setup and teardown hooks
// of an end-to-end test run, callable by any external test runner.
package main

import "os"

func main() {
	// cobra has already printed the error.
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
