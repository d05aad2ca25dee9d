//go:build windows

package main

import "os"

// shutdownSignals stop a running conversion or server.
// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
