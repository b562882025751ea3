// This is an example wiring of the core render-feature job pipeline and
// resource lifecycle subsystem against a null backend, the way the
// teacher's root main.go wires its engine against a concrete game.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/renderframe/corepipeline/core"
	"github.com/renderframe/corepipeline/testbed"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		os.Exit(0)
	}()

	if err := testbed.Run(); err != nil {
		core.LogFatal("%v", err)
	}
}
