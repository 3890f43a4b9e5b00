package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ExitFunc is swapped out by tests.
var ExitFunc = os.Exit

var (
	mu    sync.Mutex
	hooks []func()
	once  sync.Once
)

// OnShutdown registers fn to run during shutdown. Hooks run in reverse order
// of registration.
func OnShutdown(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, fn)
}

func Shutdown() {
	runHooks()
	log.Info().Msg("SVG playground stopped")
	ExitFunc(0)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	runHooks()
	ExitFunc(1)
}

// HandleSignals shuts down on SIGINT or SIGTERM.
func HandleSignals() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("Shutdown requested")
		Shutdown()
	}()
}

func runHooks() {
	once.Do(func() {
		mu.Lock()
		pending := append([]func(){}, hooks...)
		mu.Unlock()
		for i := len(pending) - 1; i >= 0; i-- {
			pending[i]()
		}
	})
}
