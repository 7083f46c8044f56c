package relay

import (
	"github.com/aki/nexus/internal/core/queue"
)

// Kind classifies how a task ended. The zero value is a clean success.
type Kind string

const (
	KindOK Kind = ""
	// KindMalformedInput means the file was not a JSON object
	KindMalformedInput Kind = "MalformedInput"
	// KindValidationFailure means a required field was missing or invalid
	KindValidationFailure Kind = "ValidationFailure"
	// KindUnresolvedAddress means to, or every reply target, had no identifier
	KindUnresolvedAddress Kind = "UnresolvedAddress"
	// KindDispatchFailure means the surface refused the message
	KindDispatchFailure Kind = "DispatchFailure"
	// KindCaptureTimeout is a degraded success: the reply never settled
	KindCaptureTimeout Kind = "CaptureTimeout"
	// KindCaptureFailed means the destination could not be read at all
	KindCaptureFailed Kind = "CaptureFailed"
	// KindReplyFailure means the reply could not be delivered back
	KindReplyFailure Kind = "ReplyFailure"
	// KindArchiveFailure means the result could not be written
	KindArchiveFailure Kind = "ArchiveFailure"
)

// Failed reports whether the kind sends a task to the error archive
func (k Kind) Failed() bool {
	return k != KindOK && k != KindCaptureTimeout
}

// String returns "OK" for the zero kind
func (k Kind) String() string {
	if k == KindOK {
		return "OK"
	}
	return string(k)
}

// Notes used in archive names and nexus_log
const (
	NoteOK            = "ok"
	NoteTimeout       = "timeout"
	NoteShutdown      = "shutdown"
	NoteMalformed     = "malformed"
	NoteReadError     = "readerr"
	NoteNoToAddress   = "no-to-address"
	NoteNoFromAddress = "no-from-address"
	NoteSendFailed    = "send-failed"
	NoteCaptureFailed = "capture-failed"
	NoteReplyFailed   = "reply-failed"
)

// outcome is what one processing stage hands to the archiver
type outcome struct {
	kind Kind
	note string
	msg  string
}

func (o outcome) status() queue.Status {
	if o.kind.Failed() {
		return queue.StatusError
	}
	return queue.StatusOK
}

// Result describes one processed task.
type Result struct {
	Task    string `json:"task"`
	TraceID string `json:"trace_id,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
	Note    string `json:"note"`
	// Archive is the result file, or the .failed marker after an archive failure
	Archive  string `json:"archive,omitempty"`
	Shutdown bool   `json:"shutdown,omitempty"`
}
