package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OK-LG/berlin-open-data/internal/config"
	"github.com/OK-LG/berlin-open-data/internal/server"
)

func testConfig(wfsURL string) *config.Config {
	c := &config.Config{}
	c.Server.Port = 8080
	c.Server.MaxSessions = 4
	c.WFS.BaseURL = wfsURL
	c.WFS.TimeoutSecs = 5
	c.WFS.RetryDelayMs = 1
	c.WFS.MaxRetries = 1
	c.WFS.RateLimit = 100
	c.WFS.UserAgent = "berlin-open-data/test"
	c.WFS.LandValueYear = 2025
	return c
}

func TestResolvePort(t *testing.T) {
	c := testConfig("")
	c.Server.Port = 9999

	assert.Equal(t, 9999, resolvePort(0, c))
	assert.Equal(t, 7000, resolvePort(7000, c))
}

func TestBuildHandler_ToolCallOverHTTP(t *testing.T) {
	wfsSrv := fakeWFS(t, map[string]string{"alkis_flurstuecke:flurstuecke": parcelBody})

	handler, err := buildHandler(testConfig(wfsSrv.URL))
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := resp.Header.Get(server.SessionHeader)
	require.NotEmpty(t, session)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/tools/get_parcel_info",
		bytes.NewBufferString(`{"lat":52.516275,"lon":13.377704}`))
	require.NoError(t, err)
	req.Header.Set(server.SessionHeader, session)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Success)
}

func TestBuildHandler_HealthReportsCircuits(t *testing.T) {
	wfsSrv := fakeWFS(t, nil)

	handler, err := buildHandler(testConfig(wfsSrv.URL))
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
