package trade_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuliguang/Sidekick/internal/trade"
)

func TestClient_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    bool
		errContain string
		wantStatus int
		wantIDs    []string
	}{
		{
			name: "decodes result envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/data/leagues", r.URL.Path)
				assert.Equal(t, "sidekick-test", r.Header.Get("User-Agent"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"result":[{"id":"Standard"},{"id":"Hardcore"}]}`))
			},
			wantIDs: []string{"Standard", "Hardcore"},
		},
		{
			name: "404 becomes status error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"code":1,"message":"Resource not found"}}`))
			},
			wantErr:    true,
			errContain: "status 404",
			wantStatus: http.StatusNotFound,
		},
		{
			name: "500 becomes status error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:    true,
			errContain: "status 500",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "invalid JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr:    true,
			errContain: "parsing response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := trade.NewClient(
				trade.WithBaseURL(srv.URL),
				trade.WithUserAgent("sidekick-test"),
			)

			var resp struct {
				Result []struct {
					ID string `json:"id"`
				} `json:"result"`
			}
			err := c.Get(context.Background(), "data/leagues", nil, &resp)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				if tt.wantStatus != 0 {
					assert.True(t, trade.IsStatus(err, tt.wantStatus))
				}
				return
			}

			require.NoError(t, err)
			ids := make([]string, 0, len(resp.Result))
			for _, r := range resp.Result {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestClient_GetQueryParams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fetch/a,b", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := trade.NewClient(trade.WithBaseURL(srv.URL + "/"))
	err := c.Get(context.Background(), "fetch/a,b", url.Values{"query": {"tok"}}, nil)
	require.NoError(t, err)
}

func TestClient_Post(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search/Standard", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"hello":"world"}`, string(body))

		_, _ = w.Write([]byte(`{"id":"q1"}`))
	}))
	defer srv.Close()

	c := trade.NewClient(trade.WithBaseURL(srv.URL))

	var resp struct {
		ID string `json:"id"`
	}
	err := c.Post(context.Background(), "search/Standard", map[string]string{"hello": "world"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "q1", resp.ID)
}

func TestClient_TooManyRequestsPausesLimiter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := trade.NewRateLimiter(0, 1, trade.WithRateLimiterNowFunc(func() time.Time { return now }))

	c := trade.NewClient(trade.WithBaseURL(srv.URL), trade.WithRateLimiter(rl))
	err := c.Get(context.Background(), "data/items", nil, nil)

	require.Error(t, err)
	assert.True(t, trade.IsStatus(err, http.StatusTooManyRequests))
	assert.Equal(t, now.Add(30*time.Second), rl.BlockedUntil())
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := trade.NewClient(trade.WithBaseURL(srv.URL))
	err := c.Get(context.Background(), "data/static", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing GET data/static")
	assert.False(t, trade.IsStatus(err, http.StatusNotFound))
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	hc, err := trade.NewHTTPClient(5*time.Second, true)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, hc.Timeout)

	hc, err = trade.NewHTTPClient(0, false)
	require.NoError(t, err)
	assert.Zero(t, hc.Timeout)
}

func TestStatusError_Message(t *testing.T) {
	t.Parallel()

	err := &trade.StatusError{Method: "GET", Path: "data/stats", StatusCode: 503, Body: "down"}
	assert.Equal(t, "trade API error (status 503) for GET data/stats: down", err.Error())
}
