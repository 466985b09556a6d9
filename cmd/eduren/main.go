package main

import (
	"fmt"
	"os"
	"runtime"
)

func init() {
	// GLFW and the WebGPU surface must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
