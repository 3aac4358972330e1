package compute

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetReadsUntilExhausted(t *testing.T) {
	rows := [][]any{{"a", float64(1)}, {"b", float64(2)}, {"c", float64(3)}}
	var cursor int

	r := chi.NewRouter()
	r.Get("/view/orders/sorted_dataset", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"handle": "h-42"})
	})
	r.Get("/dataset/h-42/schema", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"columns": []Column{
			{Name: "key", Type: "string"},
			{Name: "amount", Type: "int64"},
		}})
	})
	r.Get("/dataset/h-42/next", func(w http.ResponseWriter, req *http.Request) {
		if cursor >= len(rows) {
			http.Error(w, `{"error":"end of dataset"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(rows[cursor])
		cursor++
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ds, err := New(srv.URL).Datasets().Retrieve("orders", true)
	require.NoError(t, err)
	assert.Equal(t, "h-42", ds.Handle())

	schema, err := ds.Schema()
	require.NoError(t, err)
	require.Len(t, schema, 2)
	assert.Equal(t, "amount", schema[1].Name)

	got, err := ds.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	// The cursor stays exhausted.
	_, ok, err := ds.ReadNextRow()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatasetWriterPushesRows(t *testing.T) {
	var (
		mu     sync.Mutex
		pushed [][]any
	)
	r := chi.NewRouter()
	r.Post("/dataset/h-7/push", func(w http.ResponseWriter, req *http.Request) {
		var row []any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&row))
		mu.Lock()
		pushed = append(pushed, row)
		mu.Unlock()
		w.Write([]byte("{}"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	writer := New(srv.URL).Datasets().Writer("h-7")
	require.NoError(t, writer.WriteNextRow([]any{"x", 1}))

	stream := writer.Stream()
	require.NoError(t, stream.WriteRow([]any{"y", 2}))
	require.NoError(t, stream.WriteRow([]any{"z", 3}))
	require.NoError(t, stream.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, pushed, 3)
	assert.Equal(t, []any{"x", float64(1)}, pushed[0])
	assert.Equal(t, []any{"z", float64(3)}, pushed[2])
}
