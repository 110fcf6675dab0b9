package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
)

// Line is one vehicle in the cart. Price and display metadata are frozen
// when the vehicle is first added.
type Line struct {
	Code      int64           `json:"code"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url"`
	LogoURL   string          `json:"logo_url"`
	Quantity  int             `json:"quantity"`
}

func lineFromItem(item catalog.Item, quantity int) Line {
	return Line{
		Code:      item.Code,
		Brand:     item.Brand,
		Model:     item.Model,
		UnitPrice: item.SalePrice,
		ImageURL:  item.ImageURL,
		LogoURL:   item.LogoURL,
		Quantity:  quantity,
	}
}

func (l Line) Title() string {
	return strings.TrimSpace(l.Brand + " " + l.Model)
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a point-in-time copy of the cart with derived totals.
type Snapshot struct {
	Lines          []Line
	TotalItemCount int
	TotalPrice     decimal.Decimal
}

func newSnapshot(lines []Line) Snapshot {
	snap := Snapshot{
		Lines:      cloneLines(lines),
		TotalPrice: decimal.Zero,
	}
	for _, line := range lines {
		snap.TotalItemCount += line.Quantity
		snap.TotalPrice = snap.TotalPrice.Add(line.Subtotal())
	}
	return snap
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Line returns the line for code, if present.
func (s Snapshot) Line(code int64) (Line, bool) {
	if idx := indexOf(s.Lines, code); idx >= 0 {
		return s.Lines[idx], true
	}
	return Line{}, false
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func indexOf(lines []Line, code int64) int {
	for idx := range lines {
		if lines[idx].Code == code {
			return idx
		}
	}
	return -1
}
