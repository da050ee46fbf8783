package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKeySeparatesPathAndQuery(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/v1/trains/G1/journeys", nil)
	b := httptest.NewRequest(http.MethodGet, "/v1/trains/K2/journeys", nil)
	c := httptest.NewRequest(http.MethodGet, "/v1/routes/direct?from=alpha&to=beta", nil)
	d := httptest.NewRequest(http.MethodGet, "/v1/routes/direct?from=alpha&to=gamma", nil)

	assert.NotEqual(t, lookupKey("search", a), lookupKey("search", b))
	assert.NotEqual(t, lookupKey("search", c), lookupKey("search", d))

	same := httptest.NewRequest(http.MethodGet, "/v1/trains/G1/journeys", nil)
	assert.Equal(t, lookupKey("search", a), lookupKey("search", same))
}

func TestEntryRoundTrip(t *testing.T) {
	raw := packEntry(http.StatusOK, "application/json", []byte(`["G1","K2"]`))

	status, ct, body, ok := unpackEntry(raw)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, `["G1","K2"]`, string(body))

	_, _, _, ok = unpackEntry([]byte{0, 0, 0})
	assert.False(t, ok)
}

func TestLookupRecorderTracksOversizedBody(t *testing.T) {
	rec := &lookupRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 8}

	_, err := rec.Write([]byte("12345678"))
	require.NoError(t, err)
	assert.Equal(t, 8, rec.size)
	assert.Equal(t, "12345678", string(rec.body))

	_, err = rec.Write([]byte("9"))
	require.NoError(t, err)
	assert.Greater(t, rec.size, rec.limit)
}
