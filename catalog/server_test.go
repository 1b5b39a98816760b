package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

var errDown = errors.New("database down")

func (failingStore) Products(context.Context, int) ([]Product, error)        { return nil, errDown }
func (failingStore) Packages(context.Context, int) ([]PackageProduct, error) { return nil, errDown }
func (failingStore) Resellers(context.Context) ([]Reseller, error)           { return nil, errDown }
func (failingStore) SearchResellersByName(context.Context, string) ([]Reseller, error) {
	return nil, errDown
}
func (failingStore) SearchResellersByCity(context.Context, string) ([]Reseller, error) {
	return nil, errDown
}

func newTestServer(t *testing.T, store Store) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(zerolog.Nop(), NewService(store, rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func postGraphQL(t *testing.T, url, query string) map[string]any {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"query": query})
	require.NoError(t, err)
	resp, err := http.Post(url+"/graphql", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_REST(t *testing.T) {
	_, ts := newTestServer(t, NewMemoryStore(DefaultFixtures()))

	code, body := get(t, ts.URL+"/api/products?limit=2")
	require.Equal(t, http.StatusOK, code)
	var products struct {
		Products []Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products.Products, 2)
	require.Equal(t, "Brightening Serum", products.Products[0].ProductName)

	code, body = get(t, ts.URL+"/api/packages?limit=abc")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `"package_name":"Starter Kit"`)

	code, body = get(t, ts.URL+"/api/resellers/search/city/surabaya")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `"shop_name":"Surabaya Skin"`)

	code, body = get(t, ts.URL+"/api/resellers/limited")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `"resellers":[`)
}

func TestServer_RESTError(t *testing.T) {
	_, ts := newTestServer(t, failingStore{})

	code, body := get(t, ts.URL+"/api/products")
	require.Equal(t, http.StatusInternalServerError, code)
	require.JSONEq(t, `{"error":"Internal server error"}`, string(body))
}

func TestServer_GraphQL(t *testing.T) {
	_, ts := newTestServer(t, NewMemoryStore(DefaultFixtures()))

	out := postGraphQL(t, ts.URL, `{ products(limit: 1) { id product_name price image_data } packages(limit: 1) { id packageName items } }`)
	require.Nil(t, out["errors"])

	data := out["data"].(map[string]any)
	products := data["products"].([]any)
	require.Len(t, products, 1)
	first := products[0].(map[string]any)
	require.Equal(t, "1", first["id"])
	require.Equal(t, "Brightening Serum", first["product_name"])
	require.Nil(t, first["image_data"])

	pkg := data["packages"].([]any)[0].(map[string]any)
	require.Equal(t, "Starter Kit", pkg["packageName"])
	require.Len(t, pkg["items"], 3)

	out = postGraphQL(t, ts.URL, `{ searchResellersByName(query: "ayu") { id shop_name city } }`)
	require.Nil(t, out["errors"])
	require.Len(t, out["data"].(map[string]any)["searchResellersByName"], 2)
}

func TestServer_GraphQLError(t *testing.T) {
	s, ts := newTestServer(t, failingStore{})

	out := postGraphQL(t, ts.URL, `{ products { id } }`)
	errs := out["errors"].([]any)
	require.NotEmpty(t, errs)
	require.Equal(t, "Failed to fetch products", errs[0].(map[string]any)["message"])

	require.Equal(t, 1.0, testutil.ToFloat64(s.metrics.requestsTotal.WithLabelValues("graphql", "products", "error")))
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t, NewMemoryStore(DefaultFixtures()))

	get(t, ts.URL+"/api/products")
	code, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `apibench_catalog_requests_total{operation="products",status="ok",transport="rest"} 1`)
}
