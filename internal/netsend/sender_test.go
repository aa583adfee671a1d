package netsend

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaintextAllowed(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"10.0.0.5", true},
		{"172.16.3.4", true},
		{"192.168.1.20", true},
		{"169.254.10.1", true},
		{"8.8.8.8", false},
		{"203.0.113.7", false},
		{"example.com", false},
		{"tracker.internal", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaintextAllowed(tt.host))
		})
	}
}

func TestSendPost(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender()
	payload := []byte(`{"lat":48.1,"lon":11.5}`)
	err := s.Send(payload, srv.URL+"/pub", map[string]string{"X-Device": "van-3"}, http.MethodPost)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, string(payload), string(gotBody))
}

func TestSendGetFoldsPayloadIntoQuery(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender()
	err := s.Send([]byte(`{"lat":48.1,"bs":"charging","tst":1700000000,"batt":87.5}`), srv.URL+"/pub?src=agent", nil, http.MethodGet)

	require.NoError(t, err)
	assert.Equal(t, "48.1", gotQuery["lat"][0])
	assert.Equal(t, "charging", gotQuery["bs"][0])
	// Large integers must keep their decimal form, not float notation.
	assert.Equal(t, "1700000000", gotQuery["tst"][0])
	assert.Equal(t, "87.5", gotQuery["batt"][0])
	// Query params already on the endpoint survive the fold.
	assert.Equal(t, "agent", gotQuery["src"][0])
}

func TestSendNon2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSender()
	err := s.Send([]byte(`{}`), srv.URL, nil, http.MethodPost)
	assert.Error(t, err)
}

func TestSendRejectsPlaintextPublicHost(t *testing.T) {
	s := NewHTTPSender()
	err := s.Send([]byte(`{}`), "http://example.com/pub", nil, http.MethodPost)
	assert.ErrorIs(t, err, ErrPlaintextForbidden)
}

func TestSendRejectsInvalidEndpoint(t *testing.T) {
	s := NewHTTPSender()
	err := s.Send([]byte(`{}`), "not-a-url", nil, http.MethodPost)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}
