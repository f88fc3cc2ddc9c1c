package ledger

import (
	"context"

	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
)

// Client wraps a liteclient connection pool with the API surface the
// vault collaborators need.
type Client struct {
	api  *ton.APIClient
	pool *liteclient.ConnectionPool
}

func NewClient(ctx context.Context, cfgURL string) (*Client, error) {
	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, cfgURL); err != nil {
		return nil, err
	}
	api := ton.NewAPIClient(pool)

	return &Client{api: api, pool: pool}, nil
}

func (c *Client) API() *ton.APIClient { return c.api }

func (c *Client) Stop() {
	c.pool.Stop()
}
