package storefront

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoimport-storefront/internal/cart"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

const (
	MessageNoMatches      = "No se encontraron vehículos que coincidan con la búsqueda."
	MessageCatalogLoading = "Cargando vehículos..."
	MessageCatalogFailed  = "Error al cargar los vehículos"
	MessageEmptyCart      = "Tu carrito está vacío."
)

type ListingState string

const (
	ListingReady   ListingState = "ready"
	ListingLoading ListingState = "loading"
	ListingError   ListingState = "error"
)

type ProductCard struct {
	Code       int64           `json:"code"`
	Title      string          `json:"title"`
	Brand      string          `json:"brand"`
	Model      string          `json:"model"`
	Category   string          `json:"category"`
	Type       string          `json:"type"`
	Price      decimal.Decimal `json:"price"`
	PriceLabel string          `json:"price_label"`
	ImageURL   string          `json:"image_url"`
	LogoURL    string          `json:"logo_url"`
}

type ProductListing struct {
	State   ListingState  `json:"state"`
	Query   string        `json:"query,omitempty"`
	Cards   []ProductCard `json:"cards"`
	Total   int           `json:"total"`
	Empty   bool          `json:"empty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type CartLineView struct {
	Code           int64           `json:"code"`
	Title          string          `json:"title"`
	ImageURL       string          `json:"image_url"`
	LogoURL        string          `json:"logo_url"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	UnitPriceLabel string          `json:"unit_price_label"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	SubtotalLabel  string          `json:"subtotal_label"`
}

type CartView struct {
	ItemCount       int             `json:"item_count"`
	Lines           []CartLineView  `json:"lines"`
	Total           decimal.Decimal `json:"total"`
	TotalLabel      string          `json:"total_label"`
	Empty           bool            `json:"empty"`
	CheckoutEnabled bool            `json:"checkout_enabled"`
	Message         string          `json:"message,omitempty"`
}

// Presenter turns catalog items and cart snapshots into view models.
type Presenter struct {
	money Money
}

func NewPresenter(money Money) *Presenter {
	return &Presenter{money: money}
}

func (p *Presenter) Money() Money {
	return p.money
}

func (p *Presenter) ProductCard(item catalog.Item) ProductCard {
	return ProductCard{
		Code:       item.Code,
		Title:      item.Title(),
		Brand:      item.Brand,
		Model:      item.Model,
		Category:   item.Category,
		Type:       CleanType(item.Type),
		Price:      item.SalePrice,
		PriceLabel: p.money.Format(item.SalePrice),
		ImageURL:   item.ImageURL,
		LogoURL:    item.LogoURL,
	}
}

func (p *Presenter) ProductCards(items []catalog.Item) []ProductCard {
	cards := make([]ProductCard, 0, len(items))
	for _, item := range items {
		cards = append(cards, p.ProductCard(item))
	}
	return cards
}

// Listing renders search results; no matches yields the empty state.
func (p *Presenter) Listing(query string, items []catalog.Item) ProductListing {
	listing := ProductListing{
		State: ListingReady,
		Query: query,
		Cards: p.ProductCards(items),
		Total: len(items),
	}
	if len(items) == 0 {
		listing.Empty = true
		listing.Message = MessageNoMatches
	}
	return listing
}

// ListingUnavailable renders the listing while the catalog is loading or
// after its fetch failed.
func (p *Presenter) ListingUnavailable(state catalog.State, err error) ProductListing {
	if state == catalog.StateLoading {
		return ProductListing{
			State:   ListingLoading,
			Cards:   []ProductCard{},
			Empty:   true,
			Message: MessageCatalogLoading,
		}
	}
	listing := ProductListing{
		State: ListingError,
		Cards: []ProductCard{},
		Empty: true,
		Error: MessageCatalogFailed,
	}
	if typed := pkgerrors.As(err); typed != nil {
		listing.Error = MessageCatalogFailed + ": " + typed.Message()
	} else if err != nil {
		listing.Error = MessageCatalogFailed + ": " + err.Error()
	}
	return listing
}

func (p *Presenter) CartView(snap cart.Snapshot) CartView {
	view := CartView{
		ItemCount:       snap.TotalItemCount,
		Lines:           make([]CartLineView, 0, len(snap.Lines)),
		Total:           snap.TotalPrice,
		TotalLabel:      p.money.Format(snap.TotalPrice),
		Empty:           snap.IsEmpty(),
		CheckoutEnabled: !snap.IsEmpty(),
	}
	if view.Empty {
		view.Message = MessageEmptyCart
	}
	for _, line := range snap.Lines {
		subtotal := line.Subtotal()
		view.Lines = append(view.Lines, CartLineView{
			Code:           line.Code,
			Title:          line.Title(),
			ImageURL:       line.ImageURL,
			LogoURL:        line.LogoURL,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			UnitPriceLabel: p.money.Format(line.UnitPrice),
			Subtotal:       subtotal,
			SubtotalLabel:  p.money.Format(subtotal),
		})
	}
	return view
}
