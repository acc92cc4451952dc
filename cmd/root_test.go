package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const parcelBody = `{"type":"FeatureCollection","features":[{"type":"Feature","id":"flurstuecke.1",
	"geometry":{"type":"Polygon","coordinates":[[[389900,5819680],[389940,5819680],[389940,5819720],[389900,5819720],[389900,5819680]]]},
	"properties":{"fsko":"110001001000123","namgmk":"Mitte","gmk":"0001","fln":"1","zae":"123","afl":1250}}]}`

// fakeWFS serves bodies keyed by type name and 500 for anything else.
func fakeWFS(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Query().Get("typenames")]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command against a fake WFS in an empty directory.
func execute(t *testing.T, wfsURL string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BERLIN_WFS_BASE_URL", wfsURL)
	t.Setenv("BERLIN_WFS_RETRY_DELAY_MS", "1")
	t.Setenv("BERLIN_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "geocode", "parcel", "buildings", "landuse", "plans", "areas", "landvalue", "lookup", "tools"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "berlin-open-data", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAddressCommands_Flags(t *testing.T) {
	for _, use := range []string{"geocode", "lookup"} {
		cmd, _, err := rootCmd.Find([]string{use})
		require.NoError(t, err)
		for _, name := range []string{"street", "number", "postal-code"} {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s should have --%s", use, name)
		}
	}
}

func TestParcelCommand_JSON(t *testing.T) {
	srv := fakeWFS(t, map[string]string{"alkis_flurstuecke:flurstuecke": parcelBody})

	out, err := execute(t, srv.URL, "parcel", "--lat", "52.516275", "--lon", "13.377704", "-o", "json")
	require.NoError(t, err)

	var res struct {
		Success bool `json:"success"`
		Data    struct {
			ID      string  `json:"flurstueck_id"`
			AreaSqm float64 `json:"area_sqm"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "110001001000123", res.Data.ID)
	assert.InDelta(t, 1250.0, res.Data.AreaSqm, 0.001)
}

func TestParcelCommand_YAML(t *testing.T) {
	srv := fakeWFS(t, map[string]string{"alkis_flurstuecke:flurstuecke": parcelBody})

	out, err := execute(t, srv.URL, "parcel", "--lat", "52.516275", "--lon", "13.377704", "-o", "yaml")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["success"])
	data, ok := res["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Mitte", data["gemarkung"])
}

func TestParcelCommand_NoDataPrintsEnvelope(t *testing.T) {
	srv := fakeWFS(t, map[string]string{
		"alkis_flurstuecke:flurstuecke": `{"type":"FeatureCollection","features":[]}`,
	})

	out, err := execute(t, srv.URL, "parcel", "--lat", "52.516275", "--lon", "13.377704", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_DATA_AT_LOCATION")
	assert.Contains(t, out, `"layer": "alkis_flurstuecke"`)
}

func TestToolsCommand_ListsAllTools(t *testing.T) {
	out, err := execute(t, "http://127.0.0.1:1", "tools", "-o", "json")
	require.NoError(t, err)

	var list []struct {
		Name  string `json:"name"`
		Input string `json:"input"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 8)
	assert.Equal(t, "geocode_address", list[0].Name)
	assert.Equal(t, "lookup_property", list[7].Name)
}

func TestRootCommand_RejectsUnknownOutput(t *testing.T) {
	_, err := execute(t, "http://127.0.0.1:1", "tools", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
