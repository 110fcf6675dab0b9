package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

const vehiclesDocument = `[
  {"codigo": 101, "marca": "Toyota", "modelo": "Corolla", "categoria": "Sedán", "tipo": "Gasolina ⛽", "precio_venta": 25000, "imagen": "img/101.png", "logo": "logo/toyota.png"},
  {"codigo": 202, "marca": "Ford", "modelo": "Ranger", "categoria": "Camioneta", "tipo": "Diésel", "precio_venta": 40000.5, "imagen": "img/202.png", "logo": "logo/ford.png"}
]`

func TestHTTPProviderFetchDecodesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(vehiclesDocument))
	}))
	defer srv.Close()

	provider, err := NewHTTPProvider(srv.URL, srv.Client())
	require.NoError(t, err)

	cat, err := provider.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	item, ok := cat.Lookup(202)
	require.True(t, ok)
	assert.Equal(t, "Ford Ranger", item.Title())
	assert.Equal(t, "40000.5", item.SalePrice.String())
	assert.Equal(t, "logo/ford.png", item.LogoURL)
}

func TestHTTPProviderFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	provider, err := NewHTTPProvider(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = provider.Fetch(context.Background())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, map[string]any{"status": http.StatusNotFound}, typed.Details())
}

func TestHTTPProviderFetchUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))
	defer srv.Close()

	provider, err := NewHTTPProvider(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = provider.Fetch(context.Background())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestHTTPProviderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	provider, err := NewHTTPProvider(url, nil)
	require.NoError(t, err)

	_, err = provider.Fetch(context.Background())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestNewHTTPProviderRequiresURL(t *testing.T) {
	_, err := NewHTTPProvider("  ", nil)
	assert.Error(t, err)
}

func TestNewHTTPProviderDefaultsToClientWithoutTimeout(t *testing.T) {
	provider, err := NewHTTPProvider("https://example.test/vehiculos.json", nil)
	require.NoError(t, err)
	assert.Same(t, http.DefaultClient, provider.client)
	assert.Zero(t, provider.client.Timeout)
}
