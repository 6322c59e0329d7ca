package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// printJSON marshals v with indentation and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
