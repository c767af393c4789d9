package engine

import (
	"errors"
	"fmt"
)

// Pipeline error codes.
const (
	// CodeBusy rejects a sync or restore issued while another run is in
	// flight.
	CodeBusy = "busy"

	// CodeWriterFailed reports a writer script that did not complete.
	CodeWriterFailed = "writer_failed"

	// CodeReaderFailed reports a reader script that did not complete.
	CodeReaderFailed = "reader_failed"

	// CodeBindFailed reports reader output that is not a valid variable
	// mapping.
	CodeBindFailed = "bind_failed"

	// CodeCheckpointFailed reports a commit that could not be written to
	// the checkpoint log.
	CodeCheckpointFailed = "checkpoint_failed"

	// CodeRestoreFailed reports a restore that could not adopt the
	// requested checkpoint, such as an out-of-range index.
	CodeRestoreFailed = "restore_failed"
)

// PipelineError is the single error family surfaced by engine operations.
// The underlying script, bind, or history error is carried in Err and
// reachable through errors.As.
type PipelineError struct {
	Code    string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("pipeline error [%s]: %s", e.Code, msg)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// AsPipelineError unwraps err into a *PipelineError if one is in the chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
