package main

import "os"

// serveUntilSignal runs listen in the foreground. The first signal runs
// shutdown, which is expected to make listen return; serveUntilSignal only
// returns once shutdown has finished, so draining work is never cut short by
// the process exiting.
func serveUntilSignal(listen func() error, signals <-chan os.Signal, shutdown func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-signals
		shutdown()
	}()

	if err := listen(); err != nil {
		return err
	}

	<-done
	return nil
}
