package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/seedgraph/bleve"
	"github.com/bobinette/seedgraph/bolt"
	"github.com/bobinette/seedgraph/layout"
	"github.com/bobinette/seedgraph/loader"
	"github.com/bobinette/seedgraph/log"
	"github.com/bobinette/seedgraph/metrics"
	"github.com/bobinette/seedgraph/services"
	"github.com/bobinette/seedgraph/session"
)

const (
	graphJSON = `{"nodes": ["A", "B", "Crash1"], "edges": [["A", "B"], ["B", "Crash1"]]}`
	metaJSON  = `{"A": {"found_time": 0}, "B": {"found_time": 35, "mutation": "havoc"}, "Crash1": {"found_time": 80}, "visit": {"A": 1, "B": 4}, "target": "Crash1"}`

	fuzzersJSON = `[
		{"name": "AFL", "year": 2013, "author": ["Michal Zalewski"], "toolurl": "https://lcamtuf.coredump.cx/afl/", "targets": ["binary"]},
		{"name": "AFLFast", "year": 2016, "author": ["Marcel Bohme", "Van-Thuan Pham"], "booktitle": "CCS", "targets": ["binary"]},
		{"name": "jsfunfuzz", "year": 2007, "targets": ["javascript"]}
	]`
)

type testServer struct {
	*httptest.Server
	client *http.Client
	dir    string
}

func createServer(t *testing.T) (*testServer, func()) {
	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, loader.GraphFile), []byte(graphJSON), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, loader.MetadataFile), []byte(metaJSON), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "mutation_delta"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "mutation_delta", "B.txt"), []byte("--- A\n+++ B\n"), 0644))

	driver := &bolt.Driver{}
	require.NoError(t, driver.Open(filepath.Join(dir, "seedgraph.db")))
	index := &bleve.FuzzerIndex{}
	require.NoError(t, index.OpenMem())

	m := metrics.New()
	logger := log.Discard()

	conf := services.GraphConfig{Layout: layout.DefaultConfig(), SettleTimeout: 5 * time.Second}
	conf.Layout.Cadence = 0
	graphs := services.NewGraphService(loader.DirSource(dir), &bolt.LayoutStore{Driver: driver}, conf, logger, m)
	fuzzers := services.NewFuzzerService(&bolt.FuzzerRepository{Driver: driver}, index)
	graphs.AnnotateWith(fuzzers.Annotate)
	require.NoError(t, graphs.Load(context.Background()))

	srv := NewServer(m)
	RegisterGraphEndpoints(srv, graphs)
	RegisterFuzzerEndpoints(srv, fuzzers)
	RegisterPage(srv, &PageHandler{Graphs: graphs, Fuzzers: fuzzers, Logger: logger})
	RegisterLayoutStream(srv, &LayoutStream{Graphs: graphs, Metrics: m, Logger: logger})
	RegisterDataFiles(srv, dir)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	ts := &testServer{Server: httptest.NewServer(srv), client: &http.Client{Jar: jar}, dir: dir}
	return ts, func() {
		ts.Close()
		graphs.Close()
		index.Close()
		driver.Close()
		os.RemoveAll(dir)
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	res, err := ts.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := ioutil.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func (ts *testServer) page(t *testing.T, path string) *goquery.Document {
	code, body := ts.do(t, "GET", path, "")
	require.Equal(t, http.StatusOK, code, string(body))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err)
	return doc
}

func decode(t *testing.T, body []byte) map[string]interface{} {
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &res), string(body))
	return res
}

func TestServer_Ping(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	code, body := ts.do(t, "GET", "/ping", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"data": "ok"}`, string(body))

	code, _ = ts.do(t, "GET", "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "seedgraph_graph_seeds 3")
}

func TestGraphEndpoints_Scene(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	code, body := ts.do(t, "GET", "/api/graph", "")
	require.Equal(t, http.StatusOK, code, string(body))

	res := decode(t, body)
	assert.NotEmpty(t, res["session"])
	scene := res["data"].(map[string]interface{})
	assert.Len(t, scene["nodes"], 3)
	assert.Len(t, scene["edges"], 2)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	cookies := ts.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, res["session"], cookies[0].Value)

	// The cookie keeps the session.
	_, body = ts.do(t, "GET", "/api/graph", "")
	assert.Equal(t, res["session"], decode(t, body)["session"])
}

func TestGraphEndpoints_Select(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	code, body := ts.do(t, "GET", "/api/seeds/A", "")
	require.Equal(t, http.StatusOK, code, string(body))

	res := decode(t, body)
	infobox := res["data"].(map[string]interface{})
	assert.Equal(t, "A", infobox["title"])
	assert.Equal(t, []interface{}{}, infobox["parents"])
	assert.Equal(t, []interface{}{"B"}, infobox["children"])
	assert.Equal(t, "lightgreen", res["fills"].(map[string]interface{})["Crash1"])
	assert.Equal(t, 2.0, res["camera"].(map[string]interface{})["k"])

	code, body = ts.do(t, "GET", "/api/seeds/Nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error": "seed Nope not found"}`, string(body))
}

func TestGraphEndpoints_Search(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	code, body := ts.do(t, "GET", "/api/search?q=a,crash", "")
	require.Equal(t, http.StatusOK, code, string(body))
	res := decode(t, body)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"A", "Crash1"}, res["matches"])

	tts := map[string]struct {
		Key    string
		Action string
		Cursor float64
	}{
		"down moves":      {Key: "ArrowDown", Action: "move", Cursor: 0},
		"down again":      {Key: "ArrowDown", Action: "move", Cursor: 1},
		"down is clamped": {Key: "ArrowDown", Action: "move", Cursor: 1},
		"modifier":        {Key: "Shift", Action: "none", Cursor: 1},
	}
	for _, name := range []string{"down moves", "down again", "down is clamped", "modifier"} {
		tt := tts[name]
		code, body := ts.do(t, "POST", "/api/search/key", `{"key": "`+tt.Key+`", "input": "a,crash"}`)
		require.Equal(t, http.StatusOK, code, name)

		data := decode(t, body)["data"].(map[string]interface{})
		assert.Equal(t, tt.Action, data["action"], name)
		assert.Equal(t, tt.Cursor, data["cursor"], name)
	}

	// Enter selects the item under the cursor.
	_, body = ts.do(t, "POST", "/api/search/key", `{"key": "Enter", "input": "a,crash"}`)
	data := decode(t, body)["data"].(map[string]interface{})
	assert.Equal(t, "select", data["action"])
	assert.Equal(t, "Crash1", data["infobox"].(map[string]interface{})["title"])

	code, _ = ts.do(t, "POST", "/api/search/key", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	for i := 0; i < 2; i++ {
		code, _ = ts.do(t, "DELETE", "/api/search", "")
		assert.Equal(t, http.StatusOK, code)
	}

	code, _ = ts.do(t, "DELETE", "/api/infobox", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestGraphEndpoints_Pin(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	tts := map[string]struct {
		Method string
		Path   string
		Body   string
		Code   int
	}{
		"pin":           {Method: "POST", Path: "/api/seeds/A/pin", Body: `{"x": 10, "y": 20}`, Code: http.StatusOK},
		"pin bad body":  {Method: "POST", Path: "/api/seeds/A/pin", Body: `{"x": "left"}`, Code: http.StatusBadRequest},
		"pin unknown":   {Method: "POST", Path: "/api/seeds/Nope/pin", Body: `{"x": 10, "y": 20}`, Code: http.StatusNotFound},
		"release":       {Method: "DELETE", Path: "/api/seeds/A/pin", Code: http.StatusOK},
		"release unkwn": {Method: "DELETE", Path: "/api/seeds/Nope/pin", Code: http.StatusNotFound},
	}

	for name, tt := range tts {
		code, body := ts.do(t, tt.Method, tt.Path, tt.Body)
		assert.Equal(t, tt.Code, code, "%s: %s", name, body)
	}

	code, body := ts.do(t, "GET", "/api/graph/cycles", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"data": []}`, string(body))
}

func TestFuzzerEndpoints(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	code, body := ts.do(t, "POST", "/api/fuzzers", fuzzersJSON)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.JSONEq(t, `{"data": {"imported": 3}}`, string(body))

	tts := map[string]struct {
		Path string
		Code int
		Body string
	}{
		"get":            {Path: "/api/fuzzers/jsfunfuzz", Code: 200, Body: `{"data": {"name": "jsfunfuzz", "year": 2007, "targets": ["javascript"]}}`},
		"get unknown":    {Path: "/api/fuzzers/libfuzzer", Code: 404},
		"invalid limit":  {Path: "/api/fuzzers?limit=ten", Code: 400},
		"invalid offset": {Path: "/api/fuzzers?offset=-", Code: 400},
	}

	for name, tt := range tts {
		code, body := ts.do(t, "GET", tt.Path, "")
		assert.Equal(t, tt.Code, code, name)
		if tt.Body != "" {
			assert.JSONEq(t, tt.Body, string(body), name)
		}
	}

	code, body = ts.do(t, "GET", "/api/fuzzers?q=bin", "")
	require.Equal(t, http.StatusOK, code)
	res := decode(t, body)
	assert.Len(t, res["data"], 2)
	assert.Equal(t, map[string]interface{}{"total": 2.0, "limit": 20.0, "offset": 0.0}, res["pagination"])

	code, body = ts.do(t, "GET", "/api/stats?filter=bohme", "")
	require.Equal(t, http.StatusOK, code)
	panel := decode(t, body)["data"].(map[string]interface{})
	assert.Equal(t, "bohme", panel["filter"])

	code, _ = ts.do(t, "POST", "/api/fuzzers", `[{"year": 2010}]`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestPage(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	// Unknown k on a new session: default camera, nothing selected.
	doc := ts.page(t, "/?k=Nope")
	assert.Equal(t, session.Placeholder, doc.Find("#js-infobox-title").Text())
	assert.True(t, doc.Find("#js-infobox").HasClass("hidden"))
	assert.Equal(t, session.DefaultCamera(layout.DefaultConfig().Width, layout.DefaultConfig().Height).Transform(), doc.Find("#js-camera").AttrOr("transform", ""))
	assert.Equal(t, 3, doc.Find("#js-graph ellipse").Length())
	assert.Equal(t, "lightgreen", doc.Find("ellipse#Crash1").AttrOr("fill", ""))

	doc = ts.page(t, "/?k=B")
	assert.Equal(t, "B", doc.Find("#js-infobox-title").Text())
	assert.False(t, doc.Find("#js-infobox").HasClass("hidden"))
	var buttons []string
	doc.Find("#js-infobox-content a.btn").Each(func(_ int, s *goquery.Selection) {
		buttons = append(buttons, s.Text())
	})
	assert.Equal(t, []string{"A", "Crash1"}, buttons)
	assert.Equal(t, "lightgreen", doc.Find("ellipse#Crash1").AttrOr("fill", ""))

	doc = ts.page(t, "/?q=crash")
	assert.Equal(t, 1, doc.Find("#js-searchform-result li").Length())
	assert.Equal(t, "crash", doc.Find("#js-searchform-text").AttrOr("value", ""))
	assert.True(t, doc.Find("ellipse#Crash1").HasClass("node-found"))

	doc = ts.page(t, "/?q=")
	assert.Equal(t, 0, doc.Find("#js-searchform-result li").Length())
	assert.False(t, doc.Find("ellipse#Crash1").HasClass("node-found"))

	doc = ts.page(t, "/?close=1")
	assert.True(t, doc.Find("#js-infobox").HasClass("hidden"))
}

func TestPage_Stats(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	code, _ := ts.do(t, "POST", "/api/fuzzers", fuzzersJSON)
	require.Equal(t, http.StatusOK, code)

	doc := ts.page(t, "/?filter=bohme")
	assert.Equal(t, "bohme", doc.Find("#js-stats-body__filter").AttrOr("value", ""))
	assert.Equal(t, 1, doc.Find("#js-stats-body__venues .card").Length())
	assert.Equal(t, 1, doc.Find("#js-stats-body__venues li:not(.hidden)").Length())
	assert.Equal(t, 2, doc.Find("#js-stats-body__authors .card").Length())
	assert.Equal(t, 1, doc.Find("#js-stats-body__targets li.hidden").Length())
}

func TestDataFiles(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	tts := map[string]struct {
		Path string
		Code int
		Body string
	}{
		"graph":          {Path: "/seed_graph.json", Code: 200, Body: graphJSON},
		"metadata":       {Path: "/metadata.json", Code: 200, Body: metaJSON},
		"mutation delta": {Path: "/mutation_delta/B.txt", Code: 200, Body: "--- A\n+++ B\n"},
		"missing delta":  {Path: "/mutation_delta/A.txt", Code: 404},
		"hidden file":    {Path: "/mutation_delta/.B.txt", Code: 400},
	}

	for name, tt := range tts {
		code, body := ts.do(t, "GET", tt.Path, "")
		assert.Equal(t, tt.Code, code, name)
		if tt.Body != "" {
			assert.Equal(t, tt.Body, string(body), name)
		}
	}
}

func TestLayoutStream(t *testing.T) {
	ts, f := createServer(t)
	defer f()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/layout/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Pinning reheats the settled layout.
	code, _ := ts.do(t, "POST", "/api/seeds/A/pin", `{"x": 10, "y": 20}`)
	require.Equal(t, http.StatusOK, code)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame layout.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Len(t, frame.Snapshot.Points, 3)
}
