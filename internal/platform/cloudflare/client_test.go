package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8stacks/internal/util/retry"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRetry(retry.WithMaxRetries(2), retry.WithInitialDelay(time.Millisecond)),
	)
}

func writeResult(w http.ResponseWriter, result any, info *resultInfo) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Result: raw, ResultInfo: info})
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/tokens/verify", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeResult(w, TokenStatus{ID: "tok", Status: "active"}, nil)
	})

	status, err := c.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Active())
	assert.Equal(t, "tok", status.ID)
}

func TestVerifyToken_Unauthorized(t *testing.T) {
	t.Parallel()

	calls := 0
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(apiResponse{Errors: []apiError{{Code: 1000, Message: "Invalid API Token"}}})
	})

	_, err := c.VerifyToken(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "1000: Invalid API Token")
	assert.Equal(t, 1, calls, "client errors are not retried")
}

func TestGetZone_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.Equal(t, "/zones/zone-123", r.URL.Path)
		writeResult(w, Zone{ID: "zone-123", Name: "example.com", Status: "active"}, nil)
	})

	zone, err := c.GetZone(context.Background(), "zone-123")
	require.NoError(t, err)
	assert.Equal(t, "example.com", zone.Name)
	assert.Equal(t, 2, calls)
}

func TestGetZoneID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		zones   []Zone
		want    string
		wantErr bool
	}{
		{name: "found", zones: []Zone{{ID: "zone-123", Name: "example.com"}}, want: "zone-123"},
		{name: "missing", zones: []Zone{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "example.com", r.URL.Query().Get("name"))
				writeResult(w, tt.zones, nil)
			})

			id, err := c.GetZoneID(context.Background(), "example.com")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestListDNSRecords_Pagination(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		records := []Record{{ID: "r" + page, Type: "A", Name: page + ".example.com"}}
		writeResult(w, records, &resultInfo{TotalPages: 2})
	})

	records, err := c.ListDNSRecords(context.Background(), "zone-123")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, "r2", records[1].ID)
}

func TestCleanupOwnerRecords(t *testing.T) {
	t.Parallel()

	records := []Record{
		{ID: "txt-1", Type: "TXT", Name: "a-shop.example.com", Content: `"heritage=external-dns,external-dns/owner=dev,external-dns/resource=ingress/shop/shop"`},
		{ID: "txt-2", Type: "TXT", Name: "a-api.example.com", Content: `"heritage=external-dns,external-dns/owner=prod"`},
		{ID: "txt-3", Type: "TXT", Name: "a-blog.example.com", Content: `"heritage=external-dns,external-dns/owner=dev2"`},
		{ID: "a-1", Type: "A", Name: "shop.example.com", Content: "1.2.3.4"},
		{ID: "a-2", Type: "A", Name: "api.example.com", Content: "5.6.7.8"},
		{ID: "a-3", Type: "A", Name: "blog.example.com", Content: "9.9.9.9"},
	}

	var mu sync.Mutex
	var deleted []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeResult(w, records, &resultInfo{TotalPages: 1})
		case http.MethodDelete:
			mu.Lock()
			deleted = append(deleted, path.Base(r.URL.Path))
			mu.Unlock()
			writeResult(w, map[string]string{}, nil)
		}
	})

	count, err := c.CleanupOwnerRecords(context.Background(), "zone-123", "dev")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.ElementsMatch(t, []string{"txt-1", "a-1"}, deleted)
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	err := error(&APIError{StatusCode: 500})
	assert.Equal(t, "cloudflare API error (status 500)", err.Error())

	wrapped := retry.Fatal(&APIError{StatusCode: 403, Messages: []string{"9109: forbidden"}})
	var apiErr *APIError
	assert.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, 403, apiErr.StatusCode)
}
