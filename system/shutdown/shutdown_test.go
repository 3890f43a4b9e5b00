package shutdown

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	hooks = nil
	once = sync.Once{}
}

func TestShutdown_RunsHooksInReverseOnce(t *testing.T) {
	reset()
	var order []int
	OnShutdown(func() { order = append(order, 1) })
	OnShutdown(func() { order = append(order, 2) })

	var codes []int
	// Override ExitFunc to avoid killing the test process
	ExitFunc = func(code int) { codes = append(codes, code) }
	defer func() { ExitFunc = os.Exit }()

	Shutdown()
	ShutdownWithError(errors.New("late"), "second call")

	assert.Equal(t, []int{2, 1}, order)
	assert.Equal(t, []int{0, 1}, codes)
}
