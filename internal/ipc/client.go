package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Reelsmith.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Reelsmith.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns recent generation requests.
func (c *Client) HistoryList(req HistoryListRequest) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.client.Call("Reelsmith.HistoryList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryDescribe returns one generation request by id.
func (c *Client) HistoryDescribe(id string) (*HistoryDescribeResponse, error) {
	var resp HistoryDescribeResponse
	if err := c.client.Call("Reelsmith.HistoryDescribe", HistoryDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryClear removes completed and failed records.
func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	var resp HistoryClearResponse
	if err := c.client.Call("Reelsmith.HistoryClear", HistoryClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryClearFailed removes failed records only.
func (c *Client) HistoryClearFailed() (*HistoryClearFailedResponse, error) {
	var resp HistoryClearFailedResponse
	if err := c.client.Call("Reelsmith.HistoryClearFailed", HistoryClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestSheetLog posts a test row to the configured webhook.
func (c *Client) TestSheetLog() (*TestSheetLogResponse, error) {
	var resp TestSheetLogResponse
	if err := c.client.Call("Reelsmith.TestSheetLog", TestSheetLogRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateIdeas brainstorms video concepts via the daemon.
func (c *Client) GenerateIdeas(req IdeasRequest) (*GenerationResponse, error) {
	var resp GenerationResponse
	if err := c.client.Call("Reelsmith.GenerateIdeas", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateScript drafts a script via the daemon.
func (c *Client) GenerateScript(req ScriptRequest) (*GenerationResponse, error) {
	var resp GenerationResponse
	if err := c.client.Call("Reelsmith.GenerateScript", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateImage generates a still image via the daemon.
func (c *Client) GenerateImage(req ImageRequest) (*GenerationResponse, error) {
	var resp GenerationResponse
	if err := c.client.Call("Reelsmith.GenerateImage", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Assess critiques described media via the daemon.
func (c *Client) Assess(req AssessRequest) (*GenerationResponse, error) {
	var resp GenerationResponse
	if err := c.client.Call("Reelsmith.Assess", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Plan produces an edit plan via the daemon.
func (c *Client) Plan(req PlanRequest) (*GenerationResponse, error) {
	var resp GenerationResponse
	if err := c.client.Call("Reelsmith.Plan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
