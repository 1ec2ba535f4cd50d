package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *Index {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return New(client, "products")
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]any
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/products/_search"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotQuery)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":2},"hits":[
			{"_source":{"id":1,"name":"red mug","price":500}},
			{"_source":{"id":7,"name":"red cup","price":300}}]}}`)
	})

	total, items, err := idx.Search(context.Background(), "red", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, uint(7), items[1].ID)
	assert.Equal(t, int64(500), items[0].Price)

	mm := gotQuery["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "red", mm["query"])
}

func TestIndex_IndexAndDelete(t *testing.T) {
	t.Parallel()

	var paths []string
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	require.NoError(t, idx.IndexProduct(context.Background(), &models.Product{ID: 3, Name: "lamp"}))
	require.NoError(t, idx.DeleteProduct(context.Background(), 3))
	assert.Equal(t, []string{"PUT /products/_doc/3", "DELETE /products/_doc/3"}, paths)
}

func TestIndex_SearchError(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"down"}`)
	})

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
