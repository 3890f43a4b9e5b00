package scene

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var ErrNoDocument = errors.New("no document loaded")

// LoadError means the document could not be obtained or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// BindingError means one tagged node could not be turned into an Element.
// The node is skipped and the rest of the scene still loads.
type BindingError struct {
	Node string
	Err  error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("failed to bind node %s: %v", e.Node, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// RedrawError means painting a bound scene failed.
type RedrawError struct {
	Err error
}

func (e *RedrawError) Error() string {
	return fmt.Sprintf("failed to redraw: %v", e.Err)
}

func (e *RedrawError) Unwrap() error { return e.Err }

// LogReporter writes reports to the global zerolog logger.
type LogReporter struct{}

func (LogReporter) Report(err error) {
	var bindErr *BindingError
	if errors.As(err, &bindErr) {
		log.Warn().Err(bindErr.Err).Str("node", bindErr.Node).Msg("Skipping node that could not be bound")
		return
	}
	log.Error().Err(err).Msg("Scene error")
}

// Reporters fans one report out to several reporters.
type Reporters []Reporter

func (rs Reporters) Report(err error) {
	for _, r := range rs {
		if r != nil {
			r.Report(err)
		}
	}
}
