package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexgen/lexgen/tablestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcGrammar = `
digit  = [0-9] ;
number => digit+ ;
op     => [+\-*/] ;
ws     => " "+ ;
`

func newTestServer(t *testing.T) (*serverState, *httptest.Server) {
	t.Helper()
	store, err := tablestore.NewMemoryStore(8)
	require.NoError(t, err)

	state := newServerState(newCompiler(), store)
	srv := httptest.NewServer(state.routes())
	t.Cleanup(srv.Close)
	return state, srv
}

func postJSON(t *testing.T, url string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthAndReadiness(t *testing.T) {
	state, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	loaded, err := compileSource(context.Background(), state.comp, state.store, "calc.lex", []byte(calcGrammar))
	require.NoError(t, err)
	state.SetTable(loaded)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScanCurrentTable(t *testing.T) {
	state, srv := newTestServer(t)
	loaded, err := compileSource(context.Background(), state.comp, state.store, "calc.lex", []byte(calcGrammar))
	require.NoError(t, err)
	state.SetTable(loaded)

	resp, body := postJSON(t, srv.URL+"/api/scan", scanRequest{Text: "12 + x", Where: `class != "ws"`})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tokens := body["tokens"].([]interface{})
	require.Len(t, tokens, 3)
	assert.Equal(t, "12", tokens[0].(map[string]interface{})["text"])
	assert.Equal(t, "number", tokens[0].(map[string]interface{})["class"])
	assert.Equal(t, "x", tokens[2].(map[string]interface{})["text"])
	assert.Equal(t, 1.0, body["errors"])

	resp, _ = postJSON(t, srv.URL+"/api/scan", scanRequest{Text: "1", Where: "class +"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompileAndScanStoredTable(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/tables", compileRequest{Name: "calc.lex", Source: calcGrammar})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, []interface{}{"number", "op", "ws"}, body["classes"])
	digest := body["digest"].(string)
	require.Len(t, digest, 64)

	resp, body = postJSON(t, srv.URL+"/api/tables", compileRequest{Source: "# relaid\nnumber=>[0-9]+;op=>[+\\-*/];ws=>\" \"+;"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, digest, body["digest"])

	resp, body = postJSON(t, srv.URL+"/api/tables/"+digest+"/scan", scanRequest{Text: "3*4"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["tokens"], 3)

	got, err := http.Get(srv.URL + "/api/tables/" + digest)
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)
	data, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transitions"`)
}

func TestCompileErrors(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/tables", compileRequest{Source: "t => missing ;"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["error"], "undefined name")

	resp, _ = postJSON(t, srv.URL+"/api/tables", compileRequest{Source: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/tables/not-a-digest/scan", scanRequest{Text: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/tables/"+strings.Repeat("0", 64)+"/scan", scanRequest{Text: "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	state, srv := newTestServer(t)
	loaded, err := compileSource(context.Background(), state.comp, state.store, "calc.lex", []byte(calcGrammar))
	require.NoError(t, err)
	state.SetTable(loaded)

	resp, _ := postJSON(t, srv.URL+"/api/scan", scanRequest{Text: "1 + 2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer got.Body.Close()
	data, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lexgen_scan_tokens_total{class="number"} 2`)
}
