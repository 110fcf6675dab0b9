package cart

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

func encodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// decodeLines parses persisted state and rejects data that breaks the
// one-line-per-code and positive-quantity rules.
func decodeLines(payload []byte) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal(payload, &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCorruptState, err, "persisted cart is not valid JSON")
	}

	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.Code]; dup {
			return nil, corrupt(fmt.Sprintf("duplicate line for code %d", line.Code), line.Code)
		}
		seen[line.Code] = struct{}{}
		if line.Quantity <= 0 {
			return nil, corrupt(fmt.Sprintf("non-positive quantity for code %d", line.Code), line.Code)
		}
		if line.UnitPrice.IsNegative() {
			return nil, corrupt(fmt.Sprintf("negative unit price for code %d", line.Code), line.Code)
		}
	}
	return lines, nil
}

func corrupt(message string, code int64) error {
	return pkgerrors.New(pkgerrors.CodeCorruptState, message).
		WithDetails(map[string]any{"code": code})
}
