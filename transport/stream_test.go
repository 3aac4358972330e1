package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamWriterPostsRowsInOrder(t *testing.T) {
	var mu sync.Mutex
	var rows [][]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var row []any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&row))
		mu.Lock()
		rows = append(rows, row)
		mu.Unlock()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := New(srv.URL)
	w := ctx.NewStreamWriter("/dataset/h-1/push", "dataset:: failed writing next row")

	for i := 0; i < 40; i++ {
		require.NoError(t, w.WriteRow([]any{i, "col"}))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, rows, 40)
	assert.EqualValues(t, 0, rows[0][0])
	assert.EqualValues(t, 39, rows[39][0])
}

func TestStreamWriterSurfacesRemoteFailureOnClose(t *testing.T) {
	var mu sync.Mutex
	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		n++
		failNow := n > 3
		mu.Unlock()
		if failNow {
			http.Error(w, "write session aborted", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := New(srv.URL)
	w := ctx.NewStreamWriter("/dataset/h-1/push", "")

	for i := 0; i < 10; i++ {
		// Rows past the failure are accepted into the queue and dropped by
		// the drainer; the first error must still win.
		_ = w.WriteRow([]any{i})
	}
	err := w.Close()
	require.Error(t, err)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Body, "write session aborted")

	// Subsequent writes are rejected with the session failure.
	assert.Error(t, w.WriteRow([]any{99}))
}

func TestStreamWriterCloseIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	w := New(srv.URL).NewStreamWriter("/dataset/h-2/push", "")
	require.NoError(t, w.WriteRow([]any{1}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

// Flush must not return while the drainer is still mid-POST of the last
// dequeued row: that row's outcome has to be observable from Flush.
func TestFlushWaitsForInFlightRow(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		close(entered)
		<-release
		http.Error(w, "write session aborted", http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := New(srv.URL).NewStreamWriter("/dataset/h-3/push", "")
	require.NoError(t, w.WriteRow([]any{1}))

	// The row has left the queue and is being posted.
	<-entered
	go func() {
		time.Sleep(120 * time.Millisecond)
		close(release)
	}()

	err := w.Flush()
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Body, "write session aborted")

	require.Error(t, w.Close())
}
