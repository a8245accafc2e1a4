// Package gameapi is the HTTP client for the Molty Royale match API.
//
// The client owns transport concerns only: auth headers, timeouts and
// the error taxonomy. Retry and backoff live with the caller; the
// engine reacts to a single call's outcome per tick.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/pkg/logger"
	"github.com/moltyroyale/agent/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout = 8 * time.Second
	maxErrorBody   = 300
)

// Ack is the provider's response to a submitted action. The loop mines
// it for region outcome signals.
type Ack struct {
	WeaponAcquired *model.Weapon
	ItemsFound     int
	Ambushed       bool
}

// Client talks to the game API over HTTP with bearer auth.
type Client struct {
	base      string
	key       string
	agentName string
	http      *http.Client
	logger    logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// WithAgentName sets the agent identity sent on join and in User-Agent.
func WithAgentName(name string) Option {
	return func(cl *Client) {
		if name != "" {
			cl.agentName = name
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a game API client for the given base URL and key.
func NewClient(base, key string, opts ...Option) *Client {
	c := &Client{
		base:      base,
		key:       key,
		agentName: "royale-agent",
		http:      &http.Client{Timeout: defaultTimeout},
		logger:    logger.Get().Named("gameapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListRooms fetches the lobby catalog.
func (c *Client) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	raw, err := c.do(ctx, http.MethodGet, "/rooms", nil)
	if err != nil {
		return nil, err
	}
	rooms, perr := parseRooms(raw)
	if perr != nil {
		metrics.RecordAPIError("parse")
		return nil, &ParseError{Op: "list_rooms", Err: perr}
	}
	return rooms, nil
}

// JoinRoom enters a room and returns the match identifier.
func (c *Client) JoinRoom(ctx context.Context, roomID string) (string, error) {
	body := map[string]string{"agent": c.agentName}
	raw, err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/join", body)
	if err != nil {
		return "", err
	}
	matchID, perr := parseJoin(raw, roomID)
	if perr != nil {
		metrics.RecordAPIError("parse")
		return "", &ParseError{Op: "join_room", Err: perr}
	}
	return matchID, nil
}

// LeaveRoom exits a room after a match concludes.
func (c *Client) LeaveRoom(ctx context.Context, roomID string) error {
	_, err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/leave", nil)
	return err
}

// GetState fetches and parses the current match snapshot.
func (c *Client) GetState(ctx context.Context, matchID string) (model.MatchSnapshot, error) {
	raw, err := c.do(ctx, http.MethodGet, "/matches/"+matchID+"/state", nil)
	if err != nil {
		return model.MatchSnapshot{}, err
	}
	snap, perr := ParseSnapshot(raw)
	if perr != nil {
		metrics.RecordAPIError("parse")
		return model.MatchSnapshot{}, &ParseError{Op: "get_state", Err: perr}
	}
	if snap.MatchID == "" {
		snap.MatchID = matchID
	}
	return snap, nil
}

// SendAction submits the tick's chosen action.
func (c *Client) SendAction(ctx context.Context, matchID string, action *model.Action) (Ack, error) {
	raw, err := c.do(ctx, http.MethodPost, "/matches/"+matchID+"/action", actionPayload(action))
	if err != nil {
		return Ack{}, err
	}
	return parseAck(raw), nil
}

// Balance fetches the account currency balance.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	raw, err := c.do(ctx, http.MethodGet, "/account/balance", nil)
	if err != nil {
		return 0, err
	}
	var payload struct {
		Balance float64 `json:"balance"`
	}
	if perr := json.Unmarshal(raw, &payload); perr != nil {
		metrics.RecordAPIError("parse")
		return 0, &ParseError{Op: "balance", Err: perr}
	}
	return payload.Balance, nil
}

// do performs one HTTP round trip and classifies the outcome.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	op := method + " " + path
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequestDuration(op, float64(time.Since(start).Milliseconds()))
	}()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MoltyBot/"+c.agentName)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(op, "transport_error")
		metrics.RecordAPIError("transport")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPIRequest(op, "transport_error")
		metrics.RecordAPIError("transport")
		return nil, &TransportError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		metrics.RecordAPIRequest(op, "ok")
		return payload, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.RecordAPIRequest(op, "auth_error")
		metrics.RecordAPIError("auth")
		c.logger.Error(ctx, "game API rejected credentials",
			logger.String("op", op),
			logger.Int("status", resp.StatusCode),
		)
		return nil, &AuthError{Op: op, Status: resp.StatusCode}
	default:
		metrics.RecordAPIRequest(op, "http_error")
		metrics.RecordAPIError("transport")
		snippet := string(payload)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &TransportError{
			Op:  op,
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet),
		}
	}
}

// actionPayload maps an Action onto the provider's wire format.
func actionPayload(a *model.Action) map[string]any {
	payload := map[string]any{"action": string(a.Type)}
	switch a.Type {
	case model.ActionEscapeZone:
		payload["direction"] = a.Direction
		payload["priority"] = "sprint"
		if a.HealOnRun != "" {
			payload["use_heal"] = a.HealOnRun
		}
	case model.ActionHeal:
		payload["item"] = a.Item
	case model.ActionPickupWeapon:
		payload["weapon_name"] = a.Weapon
	case model.ActionAttack:
		payload["target_id"] = a.TargetID
	case model.ActionMoveToRegion:
		payload["region"] = a.Region
	case model.ActionLoot:
		payload["item_id"] = a.ItemID
	case model.ActionPatrol:
		// no arguments
	}
	return payload
}
