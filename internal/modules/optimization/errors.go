package optimization

import (
	"errors"
	"fmt"
)

// ErrNoExemplarsAvailable means the BEST pool for the account is empty;
// scoring has to run before generation can.
var ErrNoExemplarsAvailable = errors.New("no exemplars available: run scoring first")

// EmbeddingServiceError wraps a terminal failure of the embedding service
// after its retry budget. The caller decides whether to proceed with a
// degraded exemplar set or abort.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service failed: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// GenerationParseError means the model response could not be parsed into the
// expected variant count and shape. Nothing is persisted from such a
// response.
type GenerationParseError struct {
	Expected int
	Got      int
	Reason   string
}

func (e *GenerationParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("generation response unparseable: %s", e.Reason)
	}
	return fmt.Sprintf("generation response unparseable: expected %d variants, got %d", e.Expected, e.Got)
}
