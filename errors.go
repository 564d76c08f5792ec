package exi

import (
	"fmt"

	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
	"github.com/cockroachdb/errors"
)

var (
	// ErrTooManyResources is returned when a schema is built from more
	// than MaxSchemaResources resources.
	ErrTooManyResources = errors.New("too many schema resources")

	// ErrResourceUnavailable matches every *ResourceError.
	ErrResourceUnavailable = errors.New("schema resource unavailable")

	// ErrGrammarGeneration is returned when the engine cannot compile the
	// schema resources. The engine code is kept in the chain.
	ErrGrammarGeneration = errors.New("grammar generation failed")

	// ErrInvalidTemporal is returned when a date-time cannot be converted
	// to or from its engine representation.
	ErrInvalidTemporal = encoding.ErrInvalidTemporal

	// ErrUnexpectedState is returned by the Reader when the engine reports
	// an item that cannot complete a pending attribute or list.
	ErrUnexpectedState = errors.New("unexpected reconstruction state")

	// ErrClosed is returned when using a closed Reader or Writer.
	ErrClosed = errors.New("use of closed reader or writer")

	// ErrListTooLong is returned when writing a list whose length does not
	// fit the engine item count.
	ErrListTooLong = errors.New("list too long")
)

// ResourceError is returned when a schema resource cannot be read.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("cannot read schema resource %q: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrResourceUnavailable.
func (e *ResourceError) Is(target error) bool {
	return target == ErrResourceUnavailable
}

// checkCode converts an engine status into an error.
// Every engine failure can be matched with errors.Is against its Code.
// Unknown statuses are reported as engine.CodeUnexpected.
func checkCode(c engine.Code, op string) error {
	if c == engine.OK {
		return nil
	}

	return errors.Wrap(engine.NormalizeCode(uint32(c)), op)
}
