// Signals forwarded to the wrapped test command on Windows.

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel returns a buffered channel that receives os.Interrupt.
// SIGTERM does not exist on Windows, and Process.Signal cannot deliver
// os.Interrupt there; the console already sends Ctrl+C to the child.
func signalChannel() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}
