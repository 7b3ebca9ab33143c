package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/api"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/config"
	"github.com/DarlingtonDeveloper/CanvasBabel/ws"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Driver = "memory"
	cfg.Store.Path = ""
	return cfg
}

// startTestApp wires an App behind httptest and returns its base URL.
func startTestApp(t *testing.T, cfg *config.Config) (*App, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app, err := New(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close() })
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	return app, srv.URL
}

func getJSON(t *testing.T, url string, v interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig(t)
	s, err := OpenStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*bookmarks.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", s)
	}

	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "b.db")
	s, err = OpenStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*bookmarks.SQLiteStore); !ok {
		t.Errorf("expected sqlite store, got %T", s)
	}

	cfg.Store.Driver = "redis"
	if _, err := OpenStore(cfg); err == nil {
		t.Error("unknown driver should fail")
	}
}

func TestRootAndHealth(t *testing.T) {
	_, base := startTestApp(t, testConfig(t))

	var root map[string]string
	getJSON(t, base+"/", &root)
	if root["service"] != "canvasbabel" {
		t.Errorf("unexpected root %v", root)
	}

	var health api.HealthResponse
	getJSON(t, base+"/api/health", &health)
	if health.Status != "ok" {
		t.Errorf("unexpected health %+v", health)
	}

	resp, err := http.Get(base + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAuthApplied(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIToken = "tok"
	_, base := startTestApp(t, cfg)

	resp, err := http.Get(base + "/api/bookmarks")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("rejected requests should still carry a request id")
	}

	var list []bookmarks.Entry
	getJSON(t, base+"/api/bookmarks?token=tok", &list)
}

func TestBookmarkEventsReachWebSocket(t *testing.T) {
	app, base := startTestApp(t, testConfig(t))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(base, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readEvent := func() ws.Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev ws.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ev
	}

	if ev := readEvent(); ev.Type != ws.TypeInitialState {
		t.Fatalf("expected initial state, got %s", ev.Type)
	}
	for app.Hub.ClientCount() != 1 {
		time.Sleep(5 * time.Millisecond)
	}

	body, _ := json.Marshal(api.BookmarkRequest{Sector: strings.Repeat("0", address.SectorLength), Index: 999})
	resp, err := http.Post(base+"/api/bookmarks", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	ev := readEvent()
	if ev.Topic != ws.TopicBookmark || ev.Type != ws.TypeBookmarkAdded {
		t.Errorf("unexpected event %s/%s", ev.Topic, ev.Type)
	}
	var entry bookmarks.Entry
	json.Unmarshal(ev.Data, &entry)
	if entry.Index != 999 {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg := testConfig(t)
	cfg.Port = port
	cfg.ShutdownGrace = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, cfg) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/health", port)
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
