package link

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestIsReachable verifies that only a final 200 response counts as reachable.
func TestIsReachable(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)

			return
		}

		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewChecker(WithClient(srv.Client()))
	ctx := context.Background()

	require.True(t, c.IsReachable(ctx, srv.URL+"/ok"))
	require.True(t, c.IsReachable(ctx, srv.URL+"/moved"))
	require.False(t, c.IsReachable(ctx, srv.URL+"/missing"))
	require.False(t, c.IsReachable(ctx, srv.URL+"/empty"))
	require.False(t, c.IsReachable(ctx, "://bad"))
}

// TestIsReachableTimeout ensures a slow server is treated as unreachable.
func TestIsReachableTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := NewChecker(WithClient(srv.Client()), WithTimeout(50*time.Millisecond))
	require.False(t, c.IsReachable(context.Background(), srv.URL))
}
