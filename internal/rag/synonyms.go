package rag

import (
	"encoding/json"
	"fmt"
	"os"
)

// SynonymTable maps a seed token to related terms used for short-query
// expansion. A token absent from the table expands to itself.
type SynonymTable map[string][]string

// DefaultSynonyms returns the built-in expansion table. It is tuned for
// customer-support style documents; deployments with a different domain
// should load their own table via LoadSynonymTable.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"refund":   {"refund", "refunds", "return", "returns", "refund policy", "money back", "5-7 business days", "30 days"},
		"return":   {"return", "returns", "refund", "refund policy", "return window", "30 days"},
		"password": {"password", "reset password", "forgot password", "OTP", "one-time password"},
		"shipping": {"shipping", "delivery", "expedited", "standard shipping", "1-2 business days", "3-5 business days"},
		"support":  {"support", "help", "customer support", "business hours", "9:00-18:00"},
	}
}

// LoadSynonymTable reads a synonym table from a JSON file mapping tokens to
// term lists. An empty path returns the default table.
func LoadSynonymTable(path string) (SynonymTable, error) {
	if path == "" {
		return DefaultSynonyms(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym table: %w", err)
	}
	var table SynonymTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse synonym table: %w", err)
	}
	return table, nil
}
