// Package invoicing owns the per-year invoice number sequence.
//
// Numbers follow the INV-<year>-NNN format with a zero-padded sequence.
// Committed numbers are never reused; gaps from abandoned previews are fine.
package invoicing

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders a committed or previewed sequence value.
func FormatNumber(year, sequence int) string {
	return fmt.Sprintf("INV-%d-%03d", year, sequence)
}

// NextNumber describes a previewed invoice number.
type NextNumber struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Sequence      int    `json:"sequence"`
}

// ParseNumber extracts year and sequence from an INV-<year>-NNN number.
// It returns false for anything that does not match the format.
func ParseNumber(value string) (year, sequence int, ok bool) {
	rest, found := strings.CutPrefix(value, "INV-")
	if !found {
		return 0, 0, false
	}
	yearPart, seqPart, found := strings.Cut(rest, "-")
	if !found {
		return 0, 0, false
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil || year <= 0 {
		return 0, 0, false
	}
	sequence, err = strconv.Atoi(seqPart)
	if err != nil || sequence <= 0 {
		return 0, 0, false
	}
	return year, sequence, true
}
