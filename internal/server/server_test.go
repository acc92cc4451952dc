package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OK-LG/berlin-open-data/internal/lookup"
	"github.com/OK-LG/berlin-open-data/internal/opendata"
	"github.com/OK-LG/berlin-open-data/internal/resilience"
	"github.com/OK-LG/berlin-open-data/internal/tools"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

type stubWFS map[string]*wfs.FeatureCollection

func (s stubWFS) Query(_ context.Context, q wfs.Query) (*wfs.FeatureCollection, error) {
	if fc, ok := s[q.Source.TypeName]; ok {
		return fc, nil
	}
	return wfs.EmptyCollection(), nil
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	stub := stubWFS{
		"fnp_ak:fnp_ak_vektor": {Features: []wfs.Feature{{Properties: map[string]any{"nutzungsart": "W"}}}},
	}
	svc := opendata.NewService(stub, wfs.NewCatalog("http://wfs.test", 2025))
	s, err := New(tools.NewRegistry(svc, lookup.New(svc)), opts)
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{
		CircuitStates: func() map[string]resilience.CircuitState {
			return map[string]resilience.CircuitState{"fnp_ak:fnp_ak_vektor": resilience.CircuitOpen}
		},
	})

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"fnp_ak:fnp_ak_vektor": "open"}, body["circuits"])
}

func TestListTools(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, http.MethodGet, srv.URL+"/tools", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	list, ok := body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 8)
}

func TestCallTool(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, srv.URL+"/tools/get_land_use_plan", `{"lat":52.5163,"lon":13.3777}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "W", data["designation"].(map[string]any)["code"])
}

func TestCallTool_DomainFailureIsOK(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, srv.URL+"/tools/get_parcel_info", `{"lat":52.5163,"lon":13.3777}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "NO_DATA_AT_LOCATION", errBody["code"])
	assert.Equal(t, "alkis_flurstuecke", errBody["layer"])
}

func TestCallTool_Errors(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, _ := do(t, http.MethodPost, srv.URL+"/tools/get_weather", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, http.MethodPost, srv.URL+"/tools/get_parcel_info", `{"lat":`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid arguments")

	resp, body = do(t, http.MethodPost, srv.URL+"/tools/get_parcel_info", `{"lat":52.5}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INVALID_COORDINATES", body["error"].(map[string]any)["code"])
}

func TestSessions(t *testing.T) {
	srv := newTestServer(t, Options{MaxSessions: 2})

	resp, body := do(t, http.MethodPost, srv.URL+"/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := resp.Header.Get(SessionHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, body["session_id"])

	header := http.Header{SessionHeader: []string{id}}
	resp, _ = do(t, http.MethodGet, srv.URL+"/tools", "", header)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/tools", "", header)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, http.MethodGet, srv.URL+"/health", "", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Options{AllowedOrigins: []string{"https://example.org"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tools/get_parcel_info", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://example.org", resp.Header.Get("Access-Control-Allow-Origin"))
}
