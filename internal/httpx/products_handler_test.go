package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
	"github.com/ariefcatur/go-elite-store.git/internal/httpx"
)

func TestProductCategoriesEndpoint(t *testing.T) {
	r := httpx.NewRouter()
	(&httpx.ProductsHandler{}).Register(r, secret)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/products/categories")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cats := decode[[]catalog.Category](t, resp)
	assert.Len(t, cats, 6)
	assert.Contains(t, cats, catalog.CategoryLaptops)
	assert.Contains(t, cats, catalog.CategoryFashion)
}
