package nyt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// StateClient fetches bulk game-state payloads for a batch of puzzle ids.
// The endpoint requires the archive owner's browser session cookie and
// returns one state per id the owner has ever opened; ids it omits were
// never played and are simply absent from the result.
type StateClient struct {
	httpClient *http.Client
	baseURL    string
	cookies    []*http.Cookie
	timeout    time.Duration
}

// NewStateClient creates a new StateClient using the raw session cookie
// supplied by the archive owner.
func NewStateClient(httpClient *http.Client, baseURL, rawCookie string, timeout time.Duration) *StateClient {
	return &StateClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cookies:    ParseSessionCookie(rawCookie),
		timeout:    timeout,
	}
}

// stateEnvelope is the wire shape of the bulk game-state response.
// game_data is kept raw; normalization happens at merge time.
type stateEnvelope struct {
	States []struct {
		PuzzleID json.Number     `json:"puzzle_id"`
		GameData json.RawMessage `json:"game_data"`
	} `json:"states"`
}

// GameStates fetches the game-state payloads for the given puzzle ids in
// a single request. The result is keyed by puzzle id; response ordering
// is never trusted. Ids missing from the response are absent from the map.
func (c *StateClient) GameStates(ctx context.Context, ids []int64) (map[int64]json.RawMessage, error) {
	if len(ids) == 0 {
		return map[int64]json.RawMessage{}, nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid state base URL: %w", err)
	}
	q := u.Query()
	q.Set("puzzle_ids", strings.Join(parts, ","))
	u.RawQuery = q.Encode()

	body, err := getJSON(ctx, c.httpClient, u.String(), c.cookies, c.timeout)
	if err != nil {
		return nil, err
	}

	var envelope stateEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode game states: %w", err)
	}

	states := make(map[int64]json.RawMessage, len(envelope.States))
	for _, st := range envelope.States {
		id, err := st.PuzzleID.Int64()
		if err != nil {
			// A state we cannot key is useless; skip it
			continue
		}
		states[id] = st.GameData
	}
	return states, nil
}
