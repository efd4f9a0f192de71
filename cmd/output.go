package cmd

import (
	"encoding/json"
	"io"
	"os"
)

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
