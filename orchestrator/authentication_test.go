package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHashesPassword(t *testing.T) {
	var body map[string]string
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]any{
			"uuid": "u-1", "email": body["email"], "is_admin": false,
		})
	})
	r.Post("/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	auth := New(srv.URL).Authentication()
	user, err := auth.Login("hello@world.com", "azerty")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UUID)
	assert.Equal(t, "hello@world.com", user.Email)

	sum := sha256.Sum256([]byte("azerty"))
	assert.Equal(t, hex.EncodeToString(sum[:]), body["password"])

	require.NoError(t, auth.Logout())
}
