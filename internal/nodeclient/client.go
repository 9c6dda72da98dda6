// Package nodeclient provides an HTTP client for the node's REST API.
// It owns all transport concerns: timeouts, error typing, response
// decoding. The engine treats every call here as fallible and propagates
// failures typed, without retrying.
package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/anyong/tangleclient/internal/log"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/tx"
	"github.com/anyong/tangleclient/pkg/types"
)

// Client is an HTTP client for a single node endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// New creates a client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 30*time.Second)
}

// NewWithTimeout creates a client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   log.NodeClient,
	}
}

// Milestone is a read-only snapshot of a confirmed ledger state
// transition. Never constructed locally.
type Milestone struct {
	Index     uint32     `json:"index"`
	ID        types.Hash `json:"milestoneId"`
	Timestamp int64      `json:"timestamp"`
}

// UtxoChanges lists the output ids created and consumed at a milestone.
type UtxoChanges struct {
	Index    uint32           `json:"index"`
	Created  []types.OutputID `json:"createdOutputs"`
	Consumed []types.OutputID `json:"consumedOutputs"`
}

// Balance queries the confirmed balance of an address.
func (c *Client) Balance(ctx context.Context, addr types.Address) (uint64, error) {
	var res struct {
		Balance uint64 `json:"balance"`
	}
	op := "get balance"
	if err := c.get(ctx, op, "/api/v1/addresses/"+addr.String()+"/balance", &res); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

// Output fetches an output by its id.
func (c *Client) Output(ctx context.Context, id types.OutputID) (output.Output, error) {
	var res struct {
		Output json.RawMessage `json:"output"`
	}
	op := "get output"
	if err := c.get(ctx, op, "/api/v1/outputs/"+id.String(), &res); err != nil {
		return nil, err
	}
	out, err := output.UnmarshalOutput(res.Output)
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	return out, nil
}

// OutputsForAddress lists the unspent output ids held by an address.
func (c *Client) OutputsForAddress(ctx context.Context, addr types.Address) ([]types.OutputID, error) {
	var res struct {
		OutputIDs []types.OutputID `json:"outputIds"`
	}
	if err := c.get(ctx, "get outputs", "/api/v1/addresses/"+addr.String()+"/outputs", &res); err != nil {
		return nil, err
	}
	return res.OutputIDs, nil
}

// SubmitPayload submits a signed transaction payload. The node wraps it
// into a message, selects parents and computes the PoW nonce. Returns the
// message id.
func (c *Client) SubmitPayload(ctx context.Context, payload *tx.Payload) (types.Hash, error) {
	var res struct {
		MessageID types.Hash `json:"messageId"`
	}
	if err := c.post(ctx, "submit payload", "/api/v1/messages", payload, &res); err != nil {
		return types.Hash{}, err
	}
	c.logger.Debug().Str("message_id", res.MessageID.String()).Msg("payload submitted")
	return res.MessageID, nil
}

// MilestoneByIndex fetches a milestone by index.
func (c *Client) MilestoneByIndex(ctx context.Context, index uint32) (*Milestone, error) {
	var res Milestone
	if err := c.get(ctx, "get milestone", fmt.Sprintf("/api/v1/milestones/%d", index), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MilestoneByID fetches a milestone by id.
func (c *Client) MilestoneByID(ctx context.Context, id types.Hash) (*Milestone, error) {
	var res Milestone
	if err := c.get(ctx, "get milestone", "/api/v1/milestones/by-id/"+id.String(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UtxoChangesByIndex fetches the UTXO changes confirmed by a milestone.
func (c *Client) UtxoChangesByIndex(ctx context.Context, index uint32) (*UtxoChanges, error) {
	var res UtxoChanges
	if err := c.get(ctx, "get utxo changes", fmt.Sprintf("/api/v1/milestones/%d/utxo-changes", index), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UtxoChangesByID fetches the UTXO changes confirmed by a milestone id.
func (c *Client) UtxoChangesByID(ctx context.Context, id types.Hash) (*UtxoChanges, error) {
	var res UtxoChanges
	if err := c.get(ctx, "get utxo changes", "/api/v1/milestones/by-id/"+id.String()+"/utxo-changes", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, op, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	return c.do(op, req, result)
}

func (c *Client) post(ctx context.Context, op, path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindMalformedResponse, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, result)
}

func (c *Client) do(op string, req *http.Request, result interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: classify(err), Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: classify(err), Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &Error{Kind: KindUnreachable, Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, data)}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
		}
	}
	return nil
}

// classify maps a transport error to a failure kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindUnreachable
}
