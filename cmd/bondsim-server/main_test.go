package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/daniacca/bondsim/internal/chem"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(chem.DefaultConfig(), zap.NewNop().Sugar())
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestServer_HandleAtoms_SpawnAndList(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(`{"protons": 8, "neutrons": 8, "electrons": 8, "position": {"x": 1, "y": 2, "z": 3}}`)
	req := httptest.NewRequest(http.MethodPost, "/atoms", body)
	w := httptest.NewRecorder()
	srv.handleAtoms(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if created["element"] != "O" {
		t.Errorf("Expected element 'O', got '%v'", created["element"])
	}
	if created["id"].(float64) != 1 {
		t.Errorf("Expected first atom id 1, got %v", created["id"])
	}

	req = httptest.NewRequest(http.MethodGet, "/atoms", nil)
	w = httptest.NewRecorder()
	srv.handleAtoms(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var atoms []chem.AtomStatus
	if err := json.Unmarshal(w.Body.Bytes(), &atoms); err != nil {
		t.Fatalf("Failed to parse atom list: %v", err)
	}
	if len(atoms) != 1 {
		t.Fatalf("Expected 1 atom, got %d", len(atoms))
	}
	if atoms[0].Element != "O" {
		t.Errorf("Expected element 'O', got '%s'", atoms[0].Element)
	}
	if atoms[0].Position.X != 1 || atoms[0].Position.Y != 2 || atoms[0].Position.Z != 3 {
		t.Errorf("Expected position (1,2,3), got %+v", atoms[0].Position)
	}
}

func TestServer_HandleAtoms_InvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/atoms", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	srv.handleAtoms(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_HandleAtomByID_Delete(t *testing.T) {
	srv := newTestServer(t)
	a := srv.world.SpawnAtom(1, 0, 1, chem.Vec3{})

	req := httptest.NewRequest(http.MethodDelete, "/atoms/1", nil)
	w := httptest.NewRecorder()
	srv.handleAtomByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(srv.world.FreeAtoms()) != 0 {
		t.Error("Expected atom to be removed from the world")
	}

	// Same id again: gone.
	req = httptest.NewRequest(http.MethodDelete, "/atoms/1", nil)
	w = httptest.NewRecorder()
	srv.handleAtomByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for deleted atom %d, got %d", a.ID, w.Code)
	}
}

func TestServer_HandleAtomByID_InvalidID(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/atoms/abc", nil)
	w := httptest.NewRecorder()
	srv.handleAtomByID(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_HandleAtomByID_SetComposition(t *testing.T) {
	srv := newTestServer(t)
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{})

	body := strings.NewReader(`{"protons": 8, "neutrons": 8, "electrons": 8}`)
	req := httptest.NewRequest(http.MethodPut, "/atoms/1", body)
	w := httptest.NewRecorder()
	srv.handleAtomByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	atoms := srv.world.FreeAtoms()
	if len(atoms) != 1 || atoms[0].Element != "O" {
		t.Errorf("Expected the atom to become oxygen, got %+v", atoms)
	}
}

func TestServer_HandleBonds_CreateAndDelete(t *testing.T) {
	srv := newTestServer(t)
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{})
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{X: 1})

	req := httptest.NewRequest(http.MethodPost, "/bonds", strings.NewReader(`{"a": 1, "b": 2}`))
	w := httptest.NewRecorder()
	srv.handleBonds(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var bond chem.Bond
	if err := json.Unmarshal(w.Body.Bytes(), &bond); err != nil {
		t.Fatalf("Failed to parse bond: %v", err)
	}

	// Duplicate pair conflicts.
	req = httptest.NewRequest(http.MethodPost, "/bonds", strings.NewReader(`{"a": 2, "b": 1}`))
	w = httptest.NewRecorder()
	srv.handleBonds(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate bond, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/bonds/"+string(bond.ID), nil)
	w = httptest.NewRecorder()
	srv.handleBondByID(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 deleting bond, got %d: %s", w.Code, w.Body.String())
	}
	if len(srv.world.Bonds()) != 0 {
		t.Error("Expected no bonds after delete")
	}

	req = httptest.NewRequest(http.MethodDelete, "/bonds/"+string(bond.ID), nil)
	w = httptest.NewRecorder()
	srv.handleBondByID(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown bond, got %d", w.Code)
	}
}

func TestServer_HandleBonds_ValenceConflict(t *testing.T) {
	srv := newTestServer(t)
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{})
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{X: 1})
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{X: 2})

	req := httptest.NewRequest(http.MethodPost, "/bonds", strings.NewReader(`{"a": 1, "b": 2}`))
	w := httptest.NewRecorder()
	srv.handleBonds(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Hydrogen holds a single bond.
	req = httptest.NewRequest(http.MethodPost, "/bonds", strings.NewReader(`{"a": 1, "b": 3}`))
	w = httptest.NewRecorder()
	srv.handleBonds(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for saturated atom, got %d", w.Code)
	}
}

func TestServer_HandleEnergy(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/energy", strings.NewReader(`{"amount": 25}`))
	w := httptest.NewRecorder()
	srv.handleEnergy(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["absorbed"] != 25 {
		t.Errorf("Expected absorbed 25, got %v", resp["absorbed"])
	}

	req = httptest.NewRequest(http.MethodGet, "/energy", nil)
	w = httptest.NewRecorder()
	srv.handleEnergy(w, req)
	var status map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if status["heat"] != 25 {
		t.Errorf("Expected heat 25, got %v", status["heat"])
	}

	req = httptest.NewRequest(http.MethodDelete, "/energy", nil)
	w = httptest.NewRecorder()
	srv.handleEnergy(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if srv.world.Heat() != 0 {
		t.Errorf("Expected heat 0 after reset, got %v", srv.world.Heat())
	}
}

func TestServer_HandleEnergy_RejectsNonPositive(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/energy", strings.NewReader(`{"amount": -5}`))
	w := httptest.NewRecorder()
	srv.handleEnergy(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_HandleTick(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/tick?n=5", nil)
	w := httptest.NewRecorder()
	srv.handleTick(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]uint64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["tick"] != 5 {
		t.Errorf("Expected tick 5, got %d", resp["tick"])
	}

	req = httptest.NewRequest(http.MethodPost, "/tick?n=zero", nil)
	w = httptest.NewRecorder()
	srv.handleTick(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad n, got %d", w.Code)
	}
}

func TestServer_HandleState(t *testing.T) {
	srv := newTestServer(t)
	srv.world.SpawnAtom(6, 6, 6, chem.Vec3{})

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	w := httptest.NewRecorder()
	srv.handleState(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var state map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}
	if state["atoms"].(float64) != 1 {
		t.Errorf("Expected 1 atom, got %v", state["atoms"])
	}
	if state["mode"] != "normal" {
		t.Errorf("Expected mode 'normal', got '%v'", state["mode"])
	}
	if state["running"].(bool) {
		t.Error("Expected running to be false")
	}
}

func TestServer_HandleMode(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(`{"name": "excited", "damping": 0.999, "decay_rate": 0.99, "max_velocity": 30, "auto_reactions": true}`)
	req := httptest.NewRequest(http.MethodPost, "/mode", body)
	w := httptest.NewRecorder()
	srv.handleMode(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if srv.world.Config().Mode.Name != "excited" {
		t.Errorf("Expected mode 'excited', got '%s'", srv.world.Config().Mode.Name)
	}

	// Invalid mode rejected, current mode kept.
	body = strings.NewReader(`{"name": "broken", "damping": -1, "decay_rate": 2, "max_velocity": 0}`)
	req = httptest.NewRequest(http.MethodPost, "/mode", body)
	w = httptest.NewRecorder()
	srv.handleMode(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if srv.world.Config().Mode.Name != "excited" {
		t.Errorf("Expected mode to stay 'excited', got '%s'", srv.world.Config().Mode.Name)
	}
}

func TestServer_HandleReactionRoutes(t *testing.T) {
	srv := newTestServer(t)

	// Nothing to react: trigger conflicts.
	req := httptest.NewRequest(http.MethodPost, "/reactions/trigger", nil)
	w := httptest.NewRecorder()
	srv.handleReactionRoutes(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 with no candidates, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/reactions/toggle", nil)
	w = httptest.NewRecorder()
	srv.handleReactionRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["auto_reactions"] {
		t.Error("Expected auto reactions disabled after first toggle")
	}

	req = httptest.NewRequest(http.MethodPost, "/reactions/unknown", nil)
	w = httptest.NewRecorder()
	srv.handleReactionRoutes(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_HandleSnapshot_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	srv.world.SpawnAtom(8, 8, 8, chem.Vec3{X: 4})
	srv.world.AddEnergy(7)

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	w := httptest.NewRecorder()
	srv.handleSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	saved := w.Body.String()

	// Restore into a fresh server.
	srv2 := newTestServer(t)
	req = httptest.NewRequest(http.MethodPost, "/snapshot", strings.NewReader(saved))
	w = httptest.NewRecorder()
	srv2.handleSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	atoms := srv2.world.FreeAtoms()
	if len(atoms) != 1 || atoms[0].Element != "O" {
		t.Fatalf("Expected the restored oxygen atom, got %+v", atoms)
	}
	if srv2.world.Heat() != 7 {
		t.Errorf("Expected heat 7, got %v", srv2.world.Heat())
	}
}

func TestServer_HandleSnapshot_RejectsInvalid(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/snapshot", strings.NewReader(`{"atoms": [{"id": -1}]}`))
	w := httptest.NewRecorder()
	srv.handleSnapshot(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid snapshot, got %d", w.Code)
	}
}

func TestServer_HandleNotifiers(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(`{"type": "webhook", "id": "hook-1", "config": {"url": "http://localhost:9999/hook", "headers": {"X-Token": "abc"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/notifiers", body)
	w := httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/notifiers", nil)
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)

	var listResp map[string][]map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	// event-stream websocket plus the new webhook.
	if len(listResp["notifiers"]) != 2 {
		t.Fatalf("Expected 2 notifiers, got %d", len(listResp["notifiers"]))
	}

	req = httptest.NewRequest(http.MethodDelete, "/notifiers/hook-1", nil)
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/notifiers/hook-1", nil)
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown notifier, got %d", w.Code)
	}
}

func TestServer_HandleNotifiers_RejectsBadRequests(t *testing.T) {
	srv := newTestServer(t)

	// Missing ID.
	req := httptest.NewRequest(http.MethodPost, "/notifiers", strings.NewReader(`{"type": "webhook", "config": {"url": "http://x"}}`))
	w := httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing ID, got %d", w.Code)
	}

	// Missing URL.
	req = httptest.NewRequest(http.MethodPost, "/notifiers", strings.NewReader(`{"type": "webhook", "id": "h", "config": {}}`))
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing URL, got %d", w.Code)
	}

	// Unknown type.
	req = httptest.NewRequest(http.MethodPost, "/notifiers", strings.NewReader(`{"type": "carrier-pigeon", "id": "h", "config": {}}`))
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown type, got %d", w.Code)
	}
}

func TestServer_RunAndStop(t *testing.T) {
	srv := newTestServer(t)

	srv.Run(time.Millisecond)
	if !srv.Running() {
		t.Fatal("Expected server to be running")
	}

	// Let a few ticks pass.
	deadline := time.Now().Add(2 * time.Second)
	for srv.world.Tick() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.world.Tick() == 0 {
		t.Fatal("Expected the ticker to advance the world")
	}

	srv.Stop()
	for srv.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.Running() {
		t.Fatal("Expected server to stop")
	}

	// Restart works after a stop.
	srv.Run(time.Millisecond)
	if !srv.Running() {
		t.Fatal("Expected server to restart")
	}
	srv.Stop()
}

func TestServer_AutosaveWritesSnapshot(t *testing.T) {
	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "world.json")
	srv.SetAutosave(path, 3)
	srv.world.SpawnAtom(1, 0, 1, chem.Vec3{})

	srv.Run(time.Millisecond)
	defer srv.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap, err := loadSnapshotFile(path)
	if err != nil {
		t.Fatalf("Expected autosave snapshot at %s: %v", path, err)
	}
	if len(snap.Atoms) != 1 {
		t.Errorf("Expected 1 atom in autosave, got %d", len(snap.Atoms))
	}
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	for _, key := range []string{"BONDSIM_ADDR", "BONDSIM_CONFIG", "BONDSIM_AUTOSAVE_EVERY_TICKS", "BONDSIM_LOG_LEVEL"} {
		orig := os.Getenv(key)
		os.Unsetenv(key)
		defer func(k, v string) {
			if v != "" {
				os.Setenv(k, v)
			}
		}(key, orig)
	}

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"bondsim-server"}

	cfg := loadServerConfig()

	if cfg.Addr != ":8080" {
		t.Errorf("Expected Addr to be ':8080', got '%s'", cfg.Addr)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("Expected ConfigFile to be empty, got '%s'", cfg.ConfigFile)
	}
	if cfg.AutosaveEveryTicks != 1000 {
		t.Errorf("Expected AutosaveEveryTicks to be 1000, got %d", cfg.AutosaveEveryTicks)
	}
	if cfg.TickIntervalMs != 50 {
		t.Errorf("Expected TickIntervalMs to be 50, got %d", cfg.TickIntervalMs)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel to be 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoadServerConfig_EnvVars(t *testing.T) {
	envs := map[string]string{
		"BONDSIM_ADDR":      ":9090",
		"BONDSIM_CONFIG":    "/path/to/engine.toml",
		"BONDSIM_LOG_LEVEL": "debug",
	}
	for key, val := range envs {
		orig := os.Getenv(key)
		os.Setenv(key, val)
		defer func(k, v string) {
			if v != "" {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}(key, orig)
	}

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"bondsim-server"}

	cfg := loadServerConfig()

	if cfg.Addr != ":9090" {
		t.Errorf("Expected Addr to be ':9090', got '%s'", cfg.Addr)
	}
	if cfg.ConfigFile != "/path/to/engine.toml" {
		t.Errorf("Expected ConfigFile to be '/path/to/engine.toml', got '%s'", cfg.ConfigFile)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestLoadServerConfig_FlagsOverrideEnvVars(t *testing.T) {
	orig := os.Getenv("BONDSIM_ADDR")
	os.Setenv("BONDSIM_ADDR", ":9090")
	defer func() {
		if orig != "" {
			os.Setenv("BONDSIM_ADDR", orig)
		} else {
			os.Unsetenv("BONDSIM_ADDR")
		}
	}()

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"bondsim-server", "-addr", ":7070", "-autosave-every-ticks", "250"}

	cfg := loadServerConfig()

	if cfg.Addr != ":7070" {
		t.Errorf("Expected Addr to be ':7070' (from flag), got '%s'", cfg.Addr)
	}
	if cfg.AutosaveEveryTicks != 250 {
		t.Errorf("Expected AutosaveEveryTicks to be 250 (from flag), got %d", cfg.AutosaveEveryTicks)
	}
}

func TestLoadServerConfig_InvalidAutosaveTicks(t *testing.T) {
	orig := os.Getenv("BONDSIM_AUTOSAVE_EVERY_TICKS")
	os.Setenv("BONDSIM_AUTOSAVE_EVERY_TICKS", "invalid")
	defer func() {
		if orig != "" {
			os.Setenv("BONDSIM_AUTOSAVE_EVERY_TICKS", orig)
		} else {
			os.Unsetenv("BONDSIM_AUTOSAVE_EVERY_TICKS")
		}
	}()

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"bondsim-server"}

	cfg := loadServerConfig()

	if cfg.AutosaveEveryTicks != 1000 {
		t.Errorf("Expected AutosaveEveryTicks to be 1000 (default) when invalid, got %d", cfg.AutosaveEveryTicks)
	}
}

func TestLoadEngineConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := loadEngineConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	def := chem.DefaultConfig()
	if cfg.BondFormationDistance != def.BondFormationDistance {
		t.Errorf("Expected default bond formation distance %v, got %v", def.BondFormationDistance, cfg.BondFormationDistance)
	}
}

func TestLoadEngineConfig_TOMLOverrides(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "engine.toml")
	content := `
bond_formation_distance = 3.5
reaction_threshold = 20.0

[mode]
name = "custom"
damping = 0.99
decay_rate = 0.95
max_velocity = 20.0
auto_reactions = false
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := loadEngineConfig(tmpFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.BondFormationDistance != 3.5 {
		t.Errorf("Expected bond formation distance 3.5, got %v", cfg.BondFormationDistance)
	}
	if cfg.ReactionThreshold != 20.0 {
		t.Errorf("Expected reaction threshold 20, got %v", cfg.ReactionThreshold)
	}
	if cfg.Mode.Name != "custom" {
		t.Errorf("Expected mode name 'custom', got '%s'", cfg.Mode.Name)
	}
	// Values absent from the file keep their defaults.
	if cfg.FormingTicks != chem.DefaultConfig().FormingTicks {
		t.Errorf("Expected default forming ticks, got %d", cfg.FormingTicks)
	}
}

func TestLoadEngineConfig_RejectsInvalid(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(tmpFile, []byte("bond_formation_distance = -1.0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := loadEngineConfig(tmpFile); err == nil {
		t.Error("Expected error for invalid engine config")
	}
}

func TestLoadEngineConfig_MissingFile(t *testing.T) {
	if _, err := loadEngineConfig("/nonexistent/engine.toml"); err == nil {
		t.Error("Expected error when loading missing file")
	}
}

func TestWriteAndLoadSnapshotFile(t *testing.T) {
	srv := newTestServer(t)
	srv.world.SpawnAtom(2, 2, 2, chem.Vec3{X: 1})
	snap := srv.world.Snapshot()

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := writeSnapshotFile(path, snap); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}

	loaded, err := loadSnapshotFile(path)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if len(loaded.Atoms) != 1 {
		t.Fatalf("Expected 1 atom, got %d", len(loaded.Atoms))
	}
	if loaded.Atoms[0].Protons != 2 {
		t.Errorf("Expected helium, got %d protons", loaded.Atoms[0].Protons)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := newLogger(level, false); err != nil {
			t.Errorf("Expected level %q to build, got: %v", level, err)
		}
	}
	if _, err := newLogger("nope", false); err == nil {
		t.Error("Expected error for invalid log level")
	}
	if _, err := newLogger("debug", true); err != nil {
		t.Errorf("Expected development logger to build, got: %v", err)
	}
}
