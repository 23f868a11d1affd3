package ui

import (
	"fmt"
	"strings"
)

// Status is the outcome shown for a row.
type Status string

// Row outcomes.
const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Row is one line of a report.
type Row struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Section groups rows under a heading.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Report is a titled list of sections.
type Report struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Sections []Section `json:"sections"`
}

// Failed reports whether any row failed.
func (r *Report) Failed() bool {
	for _, s := range r.Sections {
		for _, row := range s.Rows {
			if row.Status == StatusFail {
				return true
			}
		}
	}
	return false
}

// Counts returns the number of rows per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, s := range r.Sections {
		for _, row := range s.Rows {
			counts[row.Status]++
		}
	}
	return counts
}

// Render returns the report as text. styled selects lipgloss output.
func (r *Report) Render(styled bool) string {
	var b strings.Builder

	b.WriteString("\n")
	if styled {
		b.WriteString("  " + titleStyle.Render(r.Title) + "\n")
		if r.Subtitle != "" {
			b.WriteString("  " + subtitleStyle.Render(r.Subtitle) + "\n")
		}
	} else {
		b.WriteString("  " + r.Title + "\n")
		b.WriteString("  " + strings.Repeat("=", len(r.Title)) + "\n")
		if r.Subtitle != "" {
			b.WriteString("  " + r.Subtitle + "\n")
		}
	}

	for _, s := range r.Sections {
		b.WriteString("\n")
		if styled {
			b.WriteString("  " + sectionStyle.Render(s.Title) + "\n")
		} else {
			b.WriteString("  " + s.Title + "\n")
			b.WriteString("  " + strings.Repeat("-", 35) + "\n")
		}
		for _, row := range s.Rows {
			b.WriteString(renderRow(row, styled) + "\n")
		}
	}

	b.WriteString("\n  " + r.summary(styled) + "\n")
	return b.String()
}

func (r *Report) summary(styled bool) string {
	counts := r.Counts()
	line := fmt.Sprintf("%d ok, %d warnings, %d failed", counts[StatusOK], counts[StatusWarn], counts[StatusFail])
	if !styled {
		return line
	}
	switch {
	case counts[StatusFail] > 0:
		return failStyle.Render(line)
	case counts[StatusWarn] > 0:
		return warnStyle.Render(line)
	default:
		return okStyle.Render(line)
	}
}

func renderRow(row Row, styled bool) string {
	mark := Mark(row.Status)
	if !styled {
		if row.Detail == "" {
			return fmt.Sprintf("  %s  %s", mark, row.Name)
		}
		return fmt.Sprintf("  %s  %-22s %s", mark, row.Name, row.Detail)
	}

	switch row.Status {
	case StatusOK:
		mark = okStyle.Render(mark)
	case StatusWarn:
		mark = warnStyle.Render(mark)
	case StatusFail:
		mark = failStyle.Render(mark)
	default:
		mark = dimStyle.Render(mark)
	}
	return "  " + mark + "  " + nameStyle.Render(row.Name) + dimStyle.Render(row.Detail)
}

// Mark returns the plain text marker of a status.
func Mark(s Status) string {
	switch s {
	case StatusOK:
		return checkMark
	case StatusWarn:
		return warnMark
	case StatusFail:
		return crossMark
	default:
		return skipMark
	}
}
