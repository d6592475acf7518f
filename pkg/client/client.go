// Package client is a Go client for the bondsim HTTP API. It mirrors
// the server's endpoints with typed methods and exposes the live event
// stream as a websocket subscription.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daniacca/bondsim/internal/chem"
)

// Client talks to one bondsim server.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (5 second timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithDialer replaces the websocket dialer used by SubscribeEvents.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// do sends a request and decodes the JSON response into out when out
// is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// WorldState is the aggregate status returned by State.
type WorldState struct {
	Tick             uint64  `json:"tick"`
	Heat             float64 `json:"heat"`
	SystemEnergy     float64 `json:"system_energy"`
	Temperature      float64 `json:"temperature"`
	Atoms            int     `json:"atoms"`
	Bonds            int     `json:"bonds"`
	Molecules        int     `json:"molecules"`
	ReactionInFlight bool    `json:"reaction_in_flight"`
	AutoReactions    bool    `json:"auto_reactions"`
	Mode             string  `json:"mode"`
	Running          bool    `json:"running"`
}

// State fetches the aggregate world status.
func (c *Client) State(ctx context.Context) (WorldState, error) {
	var state WorldState
	err := c.do(ctx, http.MethodGet, "/state", nil, &state)
	return state, err
}

// AtomRef identifies a freshly spawned atom.
type AtomRef struct {
	ID      chem.AtomID `json:"id"`
	Element string      `json:"element"`
}

type atomRequest struct {
	Protons   int       `json:"protons"`
	Neutrons  int       `json:"neutrons"`
	Electrons int       `json:"electrons"`
	Position  chem.Vec3 `json:"position"`
}

// SpawnAtom creates a free atom in the world.
func (c *Client) SpawnAtom(ctx context.Context, protons, neutrons, electrons int, pos chem.Vec3) (AtomRef, error) {
	var ref AtomRef
	req := atomRequest{Protons: protons, Neutrons: neutrons, Electrons: electrons, Position: pos}
	err := c.do(ctx, http.MethodPost, "/atoms", req, &ref)
	return ref, err
}

// Atoms lists the free atoms.
func (c *Client) Atoms(ctx context.Context) ([]chem.AtomStatus, error) {
	var atoms []chem.AtomStatus
	err := c.do(ctx, http.MethodGet, "/atoms", nil, &atoms)
	return atoms, err
}

// DeleteAtom removes an atom and breaks its bonds.
func (c *Client) DeleteAtom(ctx context.Context, id chem.AtomID) error {
	return c.do(ctx, http.MethodDelete, "/atoms/"+strconv.FormatInt(int64(id), 10), nil, nil)
}

// SetComposition rewrites an atom's particle counts.
func (c *Client) SetComposition(ctx context.Context, id chem.AtomID, protons, neutrons, electrons int) error {
	req := atomRequest{Protons: protons, Neutrons: neutrons, Electrons: electrons}
	return c.do(ctx, http.MethodPut, "/atoms/"+strconv.FormatInt(int64(id), 10), req, nil)
}

type bondRequest struct {
	A chem.AtomID `json:"a"`
	B chem.AtomID `json:"b"`
}

// CreateBond forces a bond between two free atoms.
func (c *Client) CreateBond(ctx context.Context, a, b chem.AtomID) (chem.Bond, error) {
	var bond chem.Bond
	err := c.do(ctx, http.MethodPost, "/bonds", bondRequest{A: a, B: b}, &bond)
	return bond, err
}

// Bonds lists the live bonds with their stress ratios.
func (c *Client) Bonds(ctx context.Context) ([]chem.BondStatus, error) {
	var bonds []chem.BondStatus
	err := c.do(ctx, http.MethodGet, "/bonds", nil, &bonds)
	return bonds, err
}

// DeleteBond removes a bond by id.
func (c *Client) DeleteBond(ctx context.Context, id chem.BondID) error {
	return c.do(ctx, http.MethodDelete, "/bonds/"+string(id), nil, nil)
}

// Molecules lists the identified molecules.
func (c *Client) Molecules(ctx context.Context) ([]chem.Molecule, error) {
	var molecules []chem.Molecule
	err := c.do(ctx, http.MethodGet, "/molecules", nil, &molecules)
	return molecules, err
}

// Molecule fetches one molecule by canonical id.
func (c *Client) Molecule(ctx context.Context, id chem.MoleculeID) (chem.Molecule, error) {
	var m chem.Molecule
	err := c.do(ctx, http.MethodGet, "/molecules/"+string(id), nil, &m)
	return m, err
}

// BreakMolecule dissolves a molecule back into free atoms.
func (c *Client) BreakMolecule(ctx context.Context, id chem.MoleculeID) error {
	return c.do(ctx, http.MethodDelete, "/molecules/"+string(id), nil, nil)
}

// Discovered returns the names of every compound discovered so far.
func (c *Client) Discovered(ctx context.Context) ([]string, error) {
	var resp map[string][]string
	if err := c.do(ctx, http.MethodGet, "/discovered", nil, &resp); err != nil {
		return nil, err
	}
	return resp["discovered"], nil
}

// EnergyStatus is the response of Energy.
type EnergyStatus struct {
	Heat         float64 `json:"heat"`
	SystemEnergy float64 `json:"system_energy"`
	Temperature  float64 `json:"temperature"`
}

// Energy fetches the current energy readings.
func (c *Client) Energy(ctx context.Context) (EnergyStatus, error) {
	var status EnergyStatus
	err := c.do(ctx, http.MethodGet, "/energy", nil, &status)
	return status, err
}

// AddEnergy injects heat and returns how much was absorbed.
func (c *Client) AddEnergy(ctx context.Context, amount float64) (float64, error) {
	var resp map[string]float64
	err := c.do(ctx, http.MethodPost, "/energy", map[string]float64{"amount": amount}, &resp)
	return resp["absorbed"], err
}

// ResetEnergy zeroes the transient heat.
func (c *Client) ResetEnergy(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/energy", nil, nil)
}

// Tick advances the simulation n ticks and returns the new tick count.
func (c *Client) Tick(ctx context.Context, n int) (uint64, error) {
	var resp map[string]uint64
	err := c.do(ctx, http.MethodPost, "/tick?n="+strconv.Itoa(n), nil, &resp)
	return resp["tick"], err
}

// Start launches the server-side ticker at the given interval.
func (c *Client) Start(ctx context.Context, interval time.Duration) error {
	ms := int(interval / time.Millisecond)
	return c.do(ctx, http.MethodPost, "/start?interval="+strconv.Itoa(ms), nil, nil)
}

// Stop halts the server-side ticker.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/stop", nil, nil)
}

// SetMode swaps the active simulation mode.
func (c *Client) SetMode(ctx context.Context, mode chem.ModeConfig) error {
	return c.do(ctx, http.MethodPost, "/mode", mode, nil)
}

// TriggerReaction forces a reaction attempt regardless of the
// auto-reaction schedule.
func (c *Client) TriggerReaction(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reactions/trigger", nil, nil)
}

// ToggleAutoReactions flips automatic reactions and returns the new
// setting.
func (c *Client) ToggleAutoReactions(ctx context.Context) (bool, error) {
	var resp map[string]bool
	err := c.do(ctx, http.MethodPost, "/reactions/toggle", nil, &resp)
	return resp["auto_reactions"], err
}

// Snapshot captures the full world state.
func (c *Client) Snapshot(ctx context.Context) (chem.Snapshot, error) {
	var snap chem.Snapshot
	err := c.do(ctx, http.MethodGet, "/snapshot", nil, &snap)
	return snap, err
}

// Restore replaces the world state with a snapshot.
func (c *Client) Restore(ctx context.Context, snap chem.Snapshot) error {
	return c.do(ctx, http.MethodPost, "/snapshot", snap, nil)
}

type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

// RegisterWebhook registers a webhook notifier that receives every
// engine event as an HTTP POST. headers may be nil.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string, headers map[string]string) error {
	cfg := map[string]any{"url": webhookURL}
	if len(headers) > 0 {
		h := make(map[string]any, len(headers))
		for k, v := range headers {
			h[k] = v
		}
		cfg["headers"] = h
	}
	req := registerNotifierRequest{Type: "webhook", ID: id, Config: cfg}
	return c.do(ctx, http.MethodPost, "/notifiers", req, nil)
}

// UnregisterNotifier removes a notifier by id.
func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifiers/"+id, nil, nil)
}

// EventStream is a live websocket subscription to engine events.
type EventStream struct {
	conn *websocket.Conn
}

// SubscribeEvents opens a websocket to the server's event stream.
func (c *Client) SubscribeEvents(ctx context.Context) (*EventStream, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/events"

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("failed to connect event stream: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return &EventStream{conn: conn}, nil
}

// Next blocks until the next event arrives or the stream closes.
func (s *EventStream) Next() (chem.Event, error) {
	var event chem.Event
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return chem.Event{}, err
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return chem.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return event, nil
}

// Close tears down the websocket connection.
func (s *EventStream) Close() error {
	return s.conn.Close()
}
