package ui

import (
	"path/filepath"

	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/relay"
)

// PrintQueue renders a queue snapshot
func PrintQueue(snap *queue.Snapshot) {
	PrintSectionHeader(InboxIcon, "Pending", len(snap.Pending))
	if len(snap.Pending) > 0 {
		tbl := NewTable("#", "FILE")
		for i, name := range snap.Pending {
			tbl.AddRow(i+1, name)
		}
		tbl.Print()
	}

	if len(snap.InProgress) > 0 {
		PrintSectionHeader(WarningIcon, "In progress", len(snap.InProgress))
		for _, name := range snap.InProgress {
			OutputLine("  %s", name)
		}
	}
	if len(snap.Failed) > 0 {
		PrintSectionHeader(ErrorIcon, "Failed to archive", len(snap.Failed))
		for _, name := range snap.Failed {
			OutputLine("  %s", name)
		}
	}

	PrintArchiveCounts(map[queue.Status]int{
		queue.StatusOK:    snap.OK,
		queue.StatusError: snap.Error,
	})
}

// PrintAddresses renders a resolved address book
func PrintAddresses(book *addressbook.Book) {
	if book.Len() == 0 {
		Info("No addresses configured")
		return
	}

	entries := book.Entries()
	tbl := NewTable("NAME", "IDENTIFIER", "DISPLAY NAME", "TITLE")
	for _, name := range book.Names() {
		e := entries[name]
		id := e.Identifier
		if id == "" {
			id = WarningStyle.Render("unresolved")
		}
		tbl.AddRow(name, id, dash(e.DisplayName), dash(Truncate(e.Title, 40)))
	}

	PrintSectionHeader(AddressIcon, "Addresses", book.Len())
	tbl.Print()
}

// PrintResults renders the outcome of processed tasks
func PrintResults(results []relay.Result) {
	if len(results) == 0 {
		Info("No tasks processed")
		return
	}

	tbl := NewTable("TASK", "TRACE", "OUTCOME", "ARCHIVE")
	for _, r := range results {
		tbl.AddRow(r.Task, dash(r.TraceID), RenderOutcome(r), dash(filepath.Base(r.Archive)))
	}
	PrintSectionHeader(ArchiveIcon, "Processed", len(results))
	tbl.Print()
}
