package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/bondsim/internal/chem"
	"github.com/daniacca/bondsim/internal/chem/notifiers"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}

// statusError maps engine sentinel errors onto HTTP status codes.
func statusError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch err {
	case chem.ErrStaleReference, chem.ErrUnknownElement:
		code = http.StatusNotFound
	case chem.ErrValenceExceeded, chem.ErrDuplicateBond, chem.ErrInsufficientEnergy:
		code = http.StatusConflict
	case chem.ErrReactionInFlight:
		code = http.StatusTooManyRequests
	}
	http.Error(w, err.Error(), code)
}

// GET /state
// Aggregate world status for dashboards.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	state := map[string]any{
		"tick":               s.world.Tick(),
		"heat":               s.world.Heat(),
		"system_energy":      s.world.SystemEnergy(),
		"temperature":        s.world.Temperature(),
		"atoms":              len(s.world.FreeAtoms()),
		"bonds":              len(s.world.Bonds()),
		"molecules":          len(s.world.Molecules()),
		"reaction_in_flight": s.world.ReactionInFlight(),
		"auto_reactions":     s.world.AutoReactionsEnabled(),
		"mode":               s.world.Config().Mode.Name,
		"running":            s.Running(),
	}
	s.mu.Unlock()
	writeJSON(w, state)
}

// POST /atoms
// Body: { "protons": 8, "neutrons": 8, "electrons": 8, "position": {...} }
type spawnAtomRequest struct {
	Protons   int       `json:"protons"`
	Neutrons  int       `json:"neutrons"`
	Electrons int       `json:"electrons"`
	Position  chem.Vec3 `json:"position"`
}

func (s *Server) handleAtoms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		atoms := s.world.FreeAtoms()
		s.mu.Unlock()
		writeJSON(w, atoms)
	case http.MethodPost:
		defer r.Body.Close()
		var req spawnAtomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		a := s.world.SpawnAtom(req.Protons, req.Neutrons, req.Electrons, req.Position)
		id, symbol := a.ID, a.Symbol()
		s.mu.Unlock()
		s.logger.Debugf("atom spawned: id=%d element=%s", id, symbol)
		writeJSON(w, map[string]any{"id": id, "element": symbol})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /atoms/{id}: DELETE removes the atom, PUT edits its composition.
func (s *Server) handleAtomByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/atoms/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid atom id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		s.mu.Lock()
		err = s.world.DeleteAtom(chem.AtomID(id))
		s.mu.Unlock()
		if err != nil {
			statusError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("atom deleted"))
	case http.MethodPut:
		defer r.Body.Close()
		var req spawnAtomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		err = s.world.SetComposition(chem.AtomID(id), req.Protons, req.Neutrons, req.Electrons)
		s.mu.Unlock()
		if err != nil {
			statusError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("atom updated"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /bonds
// Body: { "a": 1, "b": 2 }
type createBondRequest struct {
	A chem.AtomID `json:"a"`
	B chem.AtomID `json:"b"`
}

func (s *Server) handleBonds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		bonds := s.world.Bonds()
		s.mu.Unlock()
		writeJSON(w, bonds)
	case http.MethodPost:
		defer r.Body.Close()
		var req createBondRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		bond, err := s.world.CreateManualBond(req.A, req.B)
		s.mu.Unlock()
		if err != nil {
			statusError(w, err)
			return
		}
		writeJSON(w, bond)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// DELETE /bonds/{id}
func (s *Server) handleBondByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := chem.BondID(strings.TrimPrefix(r.URL.Path, "/bonds/"))
	s.mu.Lock()
	err := s.world.DeleteBond(id)
	s.mu.Unlock()
	if err != nil {
		statusError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("bond deleted"))
}

// GET /molecules
func (s *Server) handleMolecules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	molecules := s.world.Molecules()
	s.mu.Unlock()
	writeJSON(w, molecules)
}

// /molecules/{id}: GET retrieves, DELETE breaks the molecule apart.
func (s *Server) handleMoleculeByID(w http.ResponseWriter, r *http.Request) {
	id := chem.MoleculeID(strings.TrimPrefix(r.URL.Path, "/molecules/"))

	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		m, ok := s.world.Molecule(id)
		s.mu.Unlock()
		if !ok {
			http.Error(w, "molecule not found", http.StatusNotFound)
			return
		}
		writeJSON(w, m)
	case http.MethodDelete:
		s.mu.Lock()
		err := s.world.BreakMolecule(id)
		s.mu.Unlock()
		if err != nil {
			statusError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("molecule broken"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /discovered
func (s *Server) handleDiscovered(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	discovered := s.world.Discovered()
	s.mu.Unlock()
	writeJSON(w, map[string][]string{"discovered": discovered})
}

// /energy: GET reads the energy status, POST injects heat, DELETE
// resets the transient heat.
type addEnergyRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleEnergy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		status := map[string]float64{
			"heat":          s.world.Heat(),
			"system_energy": s.world.SystemEnergy(),
			"temperature":   s.world.Temperature(),
		}
		s.mu.Unlock()
		writeJSON(w, status)
	case http.MethodPost:
		defer r.Body.Close()
		var req addEnergyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Amount <= 0 {
			http.Error(w, "amount must be positive", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		absorbed := s.world.AddEnergy(req.Amount)
		s.mu.Unlock()
		writeJSON(w, map[string]float64{"absorbed": absorbed})
	case http.MethodDelete:
		s.mu.Lock()
		s.world.ResetEnergy()
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("energy reset"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /tick
// Advances the simulation manually. Query param: n (default 1).
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n := 1
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid n: must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	s.mu.Lock()
	for i := 0; i < n; i++ {
		s.world.Step()
	}
	tick := s.world.Tick()
	s.mu.Unlock()
	writeJSON(w, map[string]uint64{"tick": tick})
}

// POST /start
// Starts the background ticker. Query param: interval in ms.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	interval := s.tickInterval
	if intervalStr := r.URL.Query().Get("interval"); intervalStr != "" {
		ms, err := strconv.Atoi(intervalStr)
		if err != nil || ms <= 0 {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}
	s.Run(interval)
	s.logger.Infof("simulation started: interval=%v", interval)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation started"))
}

// POST /stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Stop()
	s.logger.Infof("simulation stopped")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation stopped"))
}

// POST /mode
// Body: ModeConfig JSON.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var mode chem.ModeConfig
	if err := json.NewDecoder(r.Body).Decode(&mode); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	err := s.world.SetMode(mode)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, "invalid mode: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("mode changed: %s", mode.Name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("mode changed"))
}

// handleReactionRoutes routes /reactions/* endpoints.
func (s *Server) handleReactionRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/reactions/trigger":
		s.mu.Lock()
		err := s.world.TriggerReaction()
		s.mu.Unlock()
		if err != nil {
			statusError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("reaction triggered"))
	case "/reactions/toggle":
		s.mu.Lock()
		enabled := s.world.ToggleAutoReactions()
		s.mu.Unlock()
		writeJSON(w, map[string]bool{"auto_reactions": enabled})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// /snapshot: GET captures the current state, POST restores from the
// request body.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		snap := s.world.Snapshot()
		s.mu.Unlock()
		data, err := chem.EncodeSnapshotJSON(snap)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case http.MethodPost:
		defer r.Body.Close()
		var snap chem.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			http.Error(w, "invalid snapshot json: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		err := s.world.Restore(snap)
		s.mu.Unlock()
		if err != nil {
			http.Error(w, "invalid snapshot: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Infof("snapshot restored: tick=%d atoms=%d", snap.Tick, len(snap.Atoms))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("snapshot restored"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleNotifiersRoutes handles notifier management endpoints.
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.events.ListNotifiers()

	list := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.events.GetNotifier(id)
		if exists {
			list = append(list, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}
	writeJSON(w, map[string]any{"notifiers": list})
}

// POST /notifiers
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://..." } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier chem.Notifier
	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := notifiers.NewWebhookNotifier(req.ID, url)
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.events.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if err := s.events.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

// GET /events
// Upgrades to a websocket subscribed to the live event stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := s.stream.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	s.stream.RegisterClient(conn)
	s.logger.Debugf("event stream client connected: %s", conn.RemoteAddr())
}

// routes registers every handler on the mux.
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/atoms", s.handleAtoms)
	mux.HandleFunc("/atoms/", s.handleAtomByID)
	mux.HandleFunc("/bonds", s.handleBonds)
	mux.HandleFunc("/bonds/", s.handleBondByID)
	mux.HandleFunc("/molecules", s.handleMolecules)
	mux.HandleFunc("/molecules/", s.handleMoleculeByID)
	mux.HandleFunc("/discovered", s.handleDiscovered)
	mux.HandleFunc("/energy", s.handleEnergy)
	mux.HandleFunc("/tick", s.handleTick)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/mode", s.handleMode)
	mux.HandleFunc("/reactions/", s.handleReactionRoutes)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	mux.HandleFunc("/events", s.handleEvents)
}
