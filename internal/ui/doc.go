// Package ui renders CLI reports, styled with lipgloss on terminals and as
// plain text elsewhere.
package ui
