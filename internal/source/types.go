package source

import "encoding/json"

// Format is the encoding of a transaction file.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// RawRecord is one JSON-lines transaction before validation.
type RawRecord struct {
	ID          string      `json:"id,omitempty"`
	Date        string      `json:"date"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category,omitempty"`
	Description string      `json:"description,omitempty"`
	Type        string      `json:"transaction_type,omitempty"`
	TypeShort   string      `json:"type,omitempty"`
}

// DiscoveredFile represents a transaction file found during directory scanning.
type DiscoveredFile struct {
	Path    string
	Format  Format
	Account string // first directory below the scan root, or the file stem
}
