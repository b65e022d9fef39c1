package model

// RawRow is a single text line or table row extracted from a source PDF.
// Cells is populated for table rows, Text for free-form lines.
type RawRow struct {
	Page  int      `json:"page"`
	Text  string   `json:"text,omitempty"`
	Cells []string `json:"cells,omitempty"`
}
