package connection

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

type Connection struct {
	RpcClient *rpc.Client
	EthClient *ethclient.Client
}

func NewConnection(ctx context.Context, endpoint string) (*Connection, error) {

	var c Connection
	var err error
	c.RpcClient, err = rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open rpc client connection: %w", err)
	}
	c.EthClient = ethclient.NewClient(c.RpcClient)

	return &c, nil
}

func (c *Connection) Close() {
	c.RpcClient.Close()
}
