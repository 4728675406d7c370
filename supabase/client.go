package supabase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/creastat/contractbot/conversation"
)

// DefaultTable holds one row per issued contract.
const DefaultTable = "contracts"

// ErrContractNotFound is returned by GetContract for unknown numbers.
var ErrContractNotFound = errors.New("contract not found")

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	Table    string        // Default: contracts
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the Store interface using Supabase
type Client struct {
	client   *supabase.Client
	table    string
	cache    *cache
	cacheTTL time.Duration
	now      func() time.Time
}

// cache provides thread-safe caching of contract lookups
type cache struct {
	mu       sync.RWMutex
	byNumber map[int]*cacheEntry[*Contract]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a new Supabase client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		table:    cfg.Table,
		cacheTTL: cfg.CacheTTL,
		cache:    &cache{byNumber: make(map[int]*cacheEntry[*Contract])},
		now:      time.Now,
	}, nil
}

// RecordContract inserts a row for a delivered contract
func (c *Client) RecordContract(ctx context.Context, ic conversation.IssuedContract) error {
	row := contractFrom(ic)

	_, _, err := c.client.From(c.table).
		Insert(row, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to record contract %d: %w", ic.Number, err)
	}

	c.addToCache(row)
	return nil
}

// GetContract retrieves a contract by number
func (c *Client) GetContract(ctx context.Context, number int) (*Contract, error) {
	// Check cache first
	if cached := c.getFromCache(number); cached != nil {
		return cached, nil
	}

	var contracts []Contract
	_, err := c.client.From(c.table).
		Select("*", "", false).
		Eq("number", strconv.Itoa(number)).
		ExecuteTo(&contracts)

	if err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", number, err)
	}

	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrContractNotFound, number)
	}

	contract := &contracts[0]
	c.addToCache(contract)

	return contract, nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// getFromCache retrieves a contract from cache by number
func (c *Client) getFromCache(number int) *Contract {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e, ok := c.cache.byNumber[number]; ok {
		if c.now().Before(e.expiresAt) {
			return e.value
		}
	}
	return nil
}

// addToCache adds a contract to cache
func (c *Client) addToCache(contract *Contract) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byNumber[contract.Number] = &cacheEntry[*Contract]{
		value:     contract,
		expiresAt: c.now().Add(c.cacheTTL),
	}
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)
