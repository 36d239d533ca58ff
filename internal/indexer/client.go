package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

const rpcTimeout = 5 * time.Second

// A wrapper around eth.client so that we can mock in watcher tests.
type EthClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
}

// Default implementation of ETH client. Since eth RPC often unstable, this
// client maintains a list of different RPC to connect to and rotates away
// from the ones that fail.
type defaultEthClient struct {
	chain string
	rpcs  []string

	mutex   sync.Mutex
	clients map[string]*ethclient.Client
	current int
}

func NewEthClient(ctx context.Context) EthClient {
	cfg := xcontext.Configs(ctx).Blockchain
	return &defaultEthClient{
		chain:   cfg.Chain,
		rpcs:    cfg.Rpcs,
		clients: map[string]*ethclient.Client{},
	}
}

func (c *defaultEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.try(ctx, func(ctx context.Context, client *ethclient.Client) error {
		var err error
		number, err = client.BlockNumber(ctx)
		return err
	})

	return number, err
}

func (c *defaultEthClient) FilterLogs(
	ctx context.Context, q ethereum.FilterQuery,
) ([]ethtypes.Log, error) {
	var logs []ethtypes.Log
	err := c.try(ctx, func(ctx context.Context, client *ethclient.Client) error {
		var err error
		logs, err = client.FilterLogs(ctx, q)
		return err
	})

	return logs, err
}

// try runs the call against the current RPC and rotates to the next one on
// failure until every RPC has been tried once.
func (c *defaultEthClient) try(
	ctx context.Context, call func(context.Context, *ethclient.Client) error,
) error {
	if len(c.rpcs) == 0 {
		return fmt.Errorf("no rpc configured for chain %s", c.chain)
	}

	var lastErr error
	for range c.rpcs {
		client, rpc, err := c.pick(ctx)
		if err != nil {
			lastErr = err
			c.rotate()
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
		err = call(callCtx, client)
		cancel()

		if err == nil {
			return nil
		}

		xcontext.Logger(ctx).Warnf("RPC %s of chain %s failed: %v", rpc, c.chain, err)
		lastErr = err
		c.drop(rpc)
		c.rotate()
	}

	return fmt.Errorf("all rpcs of chain %s failed: %w", c.chain, lastErr)
}

func (c *defaultEthClient) pick(ctx context.Context) (*ethclient.Client, string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	rpc := c.rpcs[c.current%len(c.rpcs)]
	if client, ok := c.clients[rpc]; ok {
		return client, rpc, nil
	}

	client, err := ethclient.DialContext(ctx, rpc)
	if err != nil {
		return nil, rpc, err
	}

	c.clients[rpc] = client
	return client, rpc, nil
}

func (c *defaultEthClient) drop(rpc string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if client, ok := c.clients[rpc]; ok {
		client.Close()
		delete(c.clients, rpc)
	}
}

func (c *defaultEthClient) rotate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.current++
}
