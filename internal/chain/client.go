package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Caller performs read-only contract calls. Vault balances and asset
// metadata only ever need eth_call.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Head identifies the chain state a live read was taken against.
type Head struct {
	ChainID *big.Int
	Block   uint64
}

// Client is the RPC endpoint backing live vault reserves.
type Client struct {
	url       string
	rpcClient *rpc.Client
	eth       *ethclient.Client
}

func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return &Client{
		url:       rpcURL,
		rpcClient: rpcClient,
		eth:       ethclient.NewClient(rpcClient),
	}, nil
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Head returns the chain id and latest block number.
func (c *Client) Head(ctx context.Context) (Head, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return Head{}, fmt.Errorf("get chain id: %w", err)
	}
	block, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return Head{}, fmt.Errorf("get latest block: %w", err)
	}
	return Head{ChainID: id, Block: block}, nil
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}
