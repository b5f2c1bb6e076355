package rpc

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blockpulse/indexer/internal/metrics"
)

const BLACKLIST_KEY_PREFIX = "rpc_blacklist:"
const BLACKLIST_TTL = 60 * time.Second
const ALL_BLACKLISTED_RETRY_DELAY = 1 * time.Second

// BlacklistStore is the shared store the blacklist lives in. Every
// multiplexer instance across all processes must point at the same store.
type BlacklistStore interface {
	SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Multiplexer round-robins over a fixed set of RPC endpoints, skipping
// endpoints that were recently blacklisted for failing a request.
type Multiplexer struct {
	clients []IRPCClient
	store   BlacklistStore
	mu      sync.Mutex
	cursor  int
}

func NewMultiplexer(clients []IRPCClient, store BlacklistStore) (*Multiplexer, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("multiplexer requires at least one rpc client")
	}
	return &Multiplexer{
		clients: clients,
		store:   store,
	}, nil
}

// GetClient returns the next non-blacklisted client in round-robin order.
// When every endpoint is blacklisted it waits a second and scans again, so a
// fully degraded endpoint set stalls callers instead of failing them.
func (m *Multiplexer) GetClient(ctx context.Context) (IRPCClient, error) {
	for {
		client, err := m.nextHealthyClient(ctx)
		if err != nil {
			return nil, err
		}
		if client != nil {
			return client, nil
		}

		log.Warn().Msg("All RPC endpoints are blacklisted, waiting before retry")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ALL_BLACKLISTED_RETRY_DELAY):
		}
	}
}

func (m *Multiplexer) nextHealthyClient(ctx context.Context) (IRPCClient, error) {
	m.mu.Lock()
	start := m.cursor
	m.cursor = (m.cursor + 1) % len(m.clients)
	m.mu.Unlock()

	for i := 0; i < len(m.clients); i++ {
		client := m.clients[(start+i)%len(m.clients)]
		blacklisted, err := m.store.Exists(ctx, BLACKLIST_KEY_PREFIX+client.GetURL())
		if err != nil {
			return nil, fmt.Errorf("failed to check rpc blacklist: %w", err)
		}
		if !blacklisted {
			return client, nil
		}
	}
	return nil, nil
}

// Blacklist marks an endpoint as unhealthy for the blacklist TTL. The entry
// expires on its own; the endpoint is never removed permanently.
func (m *Multiplexer) Blacklist(ctx context.Context, client IRPCClient) {
	key := BLACKLIST_KEY_PREFIX + client.GetURL()
	if err := m.store.SetWithExpiry(ctx, key, "1", BLACKLIST_TTL); err != nil {
		log.Error().Err(err).Str("url", client.GetURL()).Msg("Failed to blacklist RPC endpoint")
		return
	}
	metrics.BlacklistedEndpoints.Inc()
	log.Warn().Str("url", client.GetURL()).Msg("Blacklisted RPC endpoint")
}

func (m *Multiplexer) GetChainID() *big.Int {
	return m.clients[0].GetChainID()
}

func (m *Multiplexer) Close() {
	for _, client := range m.clients {
		client.Close()
	}
}
