package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"

	"github.com/aki/nexus/internal/core/queue"
)

// NewTable creates a table whose first column names the task or address
func NewTable(headers ...interface{}) table.Table {
	tbl := table.New(headers...)
	tbl.WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
		return TaskStyle.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)
	// lipgloss.Width ignores ANSI codes when measuring
	tbl.WithWidthFunc(lipgloss.Width)
	tbl.WithWriter(Out)
	return tbl
}

// PrintSectionHeader prints "<icon> <title> (<count>)" after a blank line
func PrintSectionHeader(icon string, title string, count int) {
	OutputLine("\n%s %s (%d)", icon, title, count)
}

// PrintArchiveCounts prints one row per archive subdirectory
func PrintArchiveCounts(counts map[queue.Status]int) {
	PrintSectionHeader(ArchiveIcon, "Archived", counts[queue.StatusOK]+counts[queue.StatusError])
	tbl := NewTable("STATUS", "TASKS")
	for _, status := range []queue.Status{queue.StatusOK, queue.StatusError} {
		style := StatusStyle(status)
		tbl.AddRow(status, style.Render(strconv.Itoa(counts[status])))
	}
	tbl.Print()
}

func dash(s string) string {
	if s == "" || s == "." {
		return DimStyle.Render("-")
	}
	return s
}
