package storefront

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/autoimport-storefront/internal/cart"
	"github.com/angelmondragon/autoimport-storefront/internal/cartstate"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

func TestMoneyFormat(t *testing.T) {
	en := NewMoney("en", "$")
	assert.Equal(t, "$1,234.57", en.Format(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "$90,000.50", en.Format(decimal.RequireFromString("90000.5")))
	assert.Equal(t, "$0.00", en.Format(decimal.Zero))

	es := NewMoney("es", "$")
	got := es.Format(decimal.RequireFromString("15000.5"))
	assert.True(t, strings.HasPrefix(got, "$"), got)
	assert.True(t, strings.HasSuffix(got, ",50"), "spanish uses a comma decimal separator, got %s", got)

	fallback := NewMoney("not a locale!!", "$")
	assert.True(t, strings.HasSuffix(fallback.Format(decimal.NewFromInt(3)), ",00"))
}

func TestCleanType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Gasolina ⛽", want: "Gasolina"},
		{in: "Híbrido 🔋", want: "Híbrido"},
		{in: "⚡ Eléctrico ⚡", want: "Eléctrico"},
		{in: "Diésel", want: "Diésel"},
		{in: "4x4 🏔️ Todo terreno", want: "4x4 Todo terreno"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CleanType(tc.in), "input %q", tc.in)
	}
}

func TestProductCards(t *testing.T) {
	p := NewPresenter(NewMoney("en", "$"))
	cards := p.ProductCards([]catalog.Item{{
		Code:      101,
		Brand:     "Toyota",
		Model:     "Corolla",
		Category:  "Sedán",
		Type:      "Gasolina ⛽",
		SalePrice: decimal.NewFromInt(25000),
		ImageURL:  "img/101.png",
		LogoURL:   "logo/toyota.png",
	}})

	require.Len(t, cards, 1)
	card := cards[0]
	assert.Equal(t, "Toyota Corolla", card.Title)
	assert.Equal(t, "Gasolina", card.Type)
	assert.Equal(t, "$25,000.00", card.PriceLabel)
	assert.Equal(t, "logo/toyota.png", card.LogoURL)
}

func TestListingEmptyState(t *testing.T) {
	p := NewPresenter(NewMoney("en", "$"))

	listing := p.Listing("tesla", nil)
	assert.True(t, listing.Empty)
	assert.Equal(t, MessageNoMatches, listing.Message)
	assert.NotNil(t, listing.Cards)
	assert.Equal(t, ListingReady, listing.State)
}

func TestListingUnavailable(t *testing.T) {
	p := NewPresenter(NewMoney("en", "$"))

	loading := p.ListingUnavailable(catalog.StateLoading, nil)
	assert.Equal(t, ListingLoading, loading.State)
	assert.Empty(t, loading.Error)

	failed := p.ListingUnavailable(catalog.StateFailed,
		pkgerrors.New(pkgerrors.CodeDependency, "catalog fetch failed: HTTP status 404"))
	assert.Equal(t, ListingError, failed.State)
	assert.Equal(t, MessageCatalogFailed+": catalog fetch failed: HTTP status 404", failed.Error)
	assert.Empty(t, failed.Cards)

	plain := p.ListingUnavailable(catalog.StateFailed, errors.New("dial tcp: refused"))
	assert.Contains(t, plain.Error, "dial tcp: refused")
}

func TestCartView(t *testing.T) {
	ctx := context.Background()
	store, err := cart.NewStore(cartstate.NewMemoryStore(), cart.Options{Key: "view_test"})
	require.NoError(t, err)
	p := NewPresenter(NewMoney("en", "$"))

	empty := p.CartView(store.Snapshot())
	assert.True(t, empty.Empty)
	assert.False(t, empty.CheckoutEnabled)
	assert.Equal(t, MessageEmptyCart, empty.Message)
	assert.Equal(t, "$0.00", empty.TotalLabel)

	_, err = store.AddItem(ctx, catalog.Item{Code: 101, Brand: "Toyota", Model: "Corolla", SalePrice: decimal.NewFromInt(25000)}, 2)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, catalog.Item{Code: 202, Brand: "Ford", Model: "Ranger", SalePrice: decimal.RequireFromString("15000.50")}, 1)
	require.NoError(t, err)

	view := p.CartView(store.Snapshot())
	assert.False(t, view.Empty)
	assert.True(t, view.CheckoutEnabled)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, "$65,000.50", view.TotalLabel)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Toyota Corolla", view.Lines[0].Title)
	assert.Equal(t, "$50,000.00", view.Lines[0].SubtotalLabel)
	assert.Equal(t, "$25,000.00", view.Lines[0].UnitPriceLabel)
}
