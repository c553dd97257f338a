package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/types"
)

// Batch is the slice of a rollup node's batch record the gateway compares
// proofs against.
type Batch struct {
	Number        types.ArgUint64 `json:"number"`
	StateRoot     common.Hash     `json:"stateRoot"`
	LocalExitRoot common.Hash     `json:"localExitRoot"`
	Closed        bool            `json:"closed"`
}

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonrpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NodeClient talks JSON-RPC to a trusted rollup node.
type NodeClient struct {
	url    string
	client *http.Client
}

func NewNodeClient(url string) *NodeClient {
	return &NodeClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *NodeClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request to %s: %w", method, c.url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request to %s: status %d", method, c.url, resp.StatusCode)
	}

	var rpcResp jsonrpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	return json.Unmarshal(rpcResp.Result, result)
}

// BatchByNumber fetches the batch record for the given batch number. A null
// result means the node does not know the batch yet.
func (c *NodeClient) BatchByNumber(ctx context.Context, number uint64) (*Batch, error) {
	var batch *Batch
	err := c.call(ctx, "zkevm_getBatchByNumber", []interface{}{fmt.Sprintf("0x%x", number), false}, &batch)
	if err != nil {
		return nil, err
	}
	return batch, nil
}
