// Package inputs provides helpers for option fields that accept either a
// single value or a list of values.
package inputs
