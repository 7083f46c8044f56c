package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/stabilizer"
)

// process runs one claimed task through send, capture and reply, then
// archives it. Every path ends in exactly one archive call.
func (d *Daemon) process(ctx context.Context, book *addressbook.Book, task *queue.ClaimedTask) Result {
	log := d.log.With("task", task.Name)

	raw, err := task.ReadRaw()
	if err != nil {
		doc := message.NewRawDocument("")
		return d.finish(log, task, doc, outcome{kind: KindMalformedInput, note: NoteReadError, msg: err.Error()})
	}

	text, err := message.DecodeText(raw, d.opts.Legacy)
	if err != nil {
		doc := message.NewRawDocument(string(raw))
		return d.finish(log, task, doc, outcome{kind: KindMalformedInput, note: NoteMalformed, msg: err.Error()})
	}
	doc, err := message.Parse([]byte(text))
	if err != nil {
		doc := message.NewRawDocument(text)
		return d.finish(log, task, doc, outcome{kind: KindMalformedInput, note: NoteMalformed, msg: err.Error()})
	}
	if id := doc.TraceID(); id != "" {
		log = log.With("trace_id", id)
	}

	if doc.IsShutdown() {
		return d.shutdown(log, task, doc)
	}

	msg, err := message.Validate(doc)
	if err != nil {
		var ve *message.ValidationError
		note := "invalid"
		if errors.As(err, &ve) {
			note = ve.Note()
		}
		return d.finish(log, task, doc, outcome{kind: KindValidationFailure, note: note, msg: err.Error()})
	}

	return d.finish(log, task, doc, d.deliver(ctx, log, book, doc, msg))
}

// deliver sends the message, captures the reply and routes it back
func (d *Daemon) deliver(ctx context.Context, log logger.Logger, book *addressbook.Book, doc *message.Document, msg message.Message) outcome {
	to, err := book.Lookup(msg.To)
	if err != nil {
		return outcome{kind: KindUnresolvedAddress, note: NoteNoToAddress, msg: err.Error()}
	}

	var replyTo addressbook.Entry
	if d.opts.ReplyToSender {
		replyTo, err = d.replyTarget(book, msg.From)
		if err != nil {
			return outcome{kind: KindUnresolvedAddress, note: NoteNoFromAddress, msg: err.Error()}
		}
	}

	log = log.With("to", msg.To, "identifier", to.Identifier)
	log.Info("sending message", "from", msg.From, "chars", len([]rune(msg.Text)))

	if !d.opts.Gateway.Send(ctx, to.Identifier, msg.Text) {
		return outcome{kind: KindDispatchFailure, note: NoteSendFailed, msg: fmt.Sprintf("send to %s (%s) failed", msg.To, to.Identifier)}
	}

	if err := d.sched.Sleep(ctx, d.opts.PostSendWait); err != nil {
		log.Warn("post-send wait interrupted", "error", err)
	}

	stab := d.opts.Stabilizer
	if msg.ResponseTimeout > 0 {
		stab = stab.WithTimeout(msg.ResponseTimeout)
	}
	res, err := stab.Capture(ctx, d.opts.Gateway, to.Identifier)
	if err != nil {
		log.Warn("capture interrupted", "error", err)
	}
	if res.Status == stabilizer.ConnectFailed {
		return outcome{kind: KindCaptureFailed, note: NoteCaptureFailed, msg: fmt.Sprintf("could not read %s (%s)", msg.To, to.Identifier)}
	}

	received := message.Received{
		Text:     res.Text,
		TS:       d.sched.Clock().Now(),
		TimedOut: res.Status == stabilizer.TimedOut,
	}
	if d.opts.Recoverer != nil {
		ocr, err := d.opts.Recoverer.Recover(ctx, to.Identifier)
		if err != nil {
			log.Warn("optical recovery failed", "error", err)
		} else {
			received.OCR = ocr
		}
	}
	doc.SetReceived(received)

	out := outcome{kind: KindOK, note: NoteOK}
	if received.TimedOut {
		out = outcome{kind: KindCaptureTimeout, note: NoteTimeout, msg: fmt.Sprintf("reply did not settle within %s", stab.Config().Timeout)}
	}

	if d.opts.ReplyToSender {
		if res.Text == "" {
			log.Info("empty reply, nothing to route back")
		} else if !d.opts.Gateway.Send(ctx, replyTo.Identifier, res.Text) {
			return outcome{kind: KindReplyFailure, note: NoteReplyFailed, msg: fmt.Sprintf("reply to %s failed", replyTo.Identifier)}
		}
	}
	return out
}

// replyTarget resolves from, falling back to the default address
func (d *Daemon) replyTarget(book *addressbook.Book, from string) (addressbook.Entry, error) {
	e, err := book.Lookup(from)
	if err == nil {
		return e, nil
	}
	if d.opts.DefaultAddressKey == "" || d.opts.DefaultAddressKey == from {
		return addressbook.Entry{}, err
	}
	fallback, ferr := book.Lookup(d.opts.DefaultAddressKey)
	if ferr != nil {
		return addressbook.Entry{}, fmt.Errorf("%w; fallback: %w", err, ferr)
	}
	return fallback, nil
}

func (d *Daemon) shutdown(log logger.Logger, task *queue.ClaimedTask, doc *message.Document) Result {
	doc.SetLog(NoteShutdown)
	r := Result{Task: task.Name, TraceID: doc.TraceID(), Note: NoteShutdown, Shutdown: true}

	body, err := doc.Encode()
	if err == nil {
		r.Archive, err = d.store.Archive(task, queue.StatusShutdown, "", body)
	}
	if err != nil {
		log.Error("failed to archive shutdown task", "error", err)
		r.Kind = KindArchiveFailure
		r.Archive = failedPath(err)
	}
	return r
}

// finish annotates doc with the outcome and archives it
func (d *Daemon) finish(log logger.Logger, task *queue.ClaimedTask, doc *message.Document, out outcome) Result {
	doc.SetLog(out.note)
	if out.kind != KindOK {
		doc.SetError(string(out.kind), out.msg)
	}

	r := Result{Task: task.Name, TraceID: doc.TraceID(), Kind: out.kind, Note: out.note}

	// ok archives are named without the default note
	note := out.note
	if out.kind == KindOK {
		note = ""
	}

	body, err := doc.Encode()
	if err == nil {
		r.Archive, err = d.store.Archive(task, out.status(), note, body)
	}
	if err != nil {
		log.Error("archive failed", "kind", out.kind, "error", err)
		r.Kind = KindArchiveFailure
		r.Archive = failedPath(err)
		return r
	}

	if received, ok := doc.Received(); ok && received.OCR != "" {
		if _, err := d.store.WriteSidecar(r.Archive, received.OCR); err != nil {
			log.Warn("failed to write ocr sidecar", "error", err)
		}
	}

	if out.kind.Failed() {
		log.Warn("task failed", "kind", out.kind, "note", out.note, "error", out.msg)
	} else {
		log.Info("task done", "kind", out.kind, "archive", r.Archive)
	}
	return r
}

func failedPath(err error) string {
	var ae *queue.ArchiveError
	if errors.As(err, &ae) {
		return ae.FailedPath
	}
	return ""
}
