package report

import (
	"encoding/json"
	"io"

	"github.com/leakguard/leakguard/internal/types"
)

// WriteJSON writes the result in its serialized contract form.
func WriteJSON(w io.Writer, r *types.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
