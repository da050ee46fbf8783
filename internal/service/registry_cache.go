package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RegistryReader reads the registry listings the cache fronts.
type RegistryReader interface {
	Names(ctx context.Context) ([]string, error)
	Cities(ctx context.Context) ([]string, error)
	Provinces(ctx context.Context) ([]string, error)
}

// TrainLister reads the known train numbers.
type TrainLister interface {
	TrainNumbers(ctx context.Context) ([]string, error)
}

// RegistryCache fronts the read-mostly registry listings (stations,
// cities, provinces, train numbers) with redis.  Entries live until the
// TTL expires or the maintenance path calls Invalidate after changing
// reference data.  With no redis client configured every read falls
// through to the store, so the cache is a pure optimization.
type RegistryCache struct {
	stations RegistryReader
	trains   TrainLister
	rdb      *redis.Client // nil disables caching
	ttl      time.Duration
}

const registryKeyPrefix = "registry:"

var registryKeys = []string{"stations", "cities", "provinces", "trains"}

func NewRegistryCache(stations RegistryReader, trains TrainLister, rdb *redis.Client, ttl time.Duration) *RegistryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RegistryCache{stations: stations, trains: trains, rdb: rdb, ttl: ttl}
}

// Stations returns all valid station names.
func (c *RegistryCache) Stations(ctx context.Context) ([]string, error) {
	return c.listing(ctx, "stations", c.stations.Names)
}

// Cities returns all city names.
func (c *RegistryCache) Cities(ctx context.Context) ([]string, error) {
	return c.listing(ctx, "cities", c.stations.Cities)
}

// Provinces returns all provinces.
func (c *RegistryCache) Provinces(ctx context.Context) ([]string, error) {
	return c.listing(ctx, "provinces", c.stations.Provinces)
}

// TrainNumbers returns all valid train numbers.
func (c *RegistryCache) TrainNumbers(ctx context.Context) ([]string, error) {
	return c.listing(ctx, "trains", c.trains.TrainNumbers)
}

// HasTrain reports whether a train number is known.
func (c *RegistryCache) HasTrain(ctx context.Context, train string) (bool, error) {
	numbers, err := c.TrainNumbers(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range numbers {
		if n == train {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops every cached listing.  Called by the maintenance
// service whenever registry or capacity data changes.
func (c *RegistryCache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	keys := make([]string, 0, len(registryKeys))
	for _, k := range registryKeys {
		keys = append(keys, registryKeyPrefix+k)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RegistryCache) listing(ctx context.Context, name string, load func(context.Context) ([]string, error)) ([]string, error) {
	if c.rdb == nil {
		return load(ctx)
	}
	key := registryKeyPrefix + name
	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []string
		if err := json.Unmarshal(bs, &out); err == nil {
			return out, nil
		}
		// Unreadable entry: fall through and overwrite it.
	}
	out, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if bs, err := json.Marshal(out); err == nil {
		_ = c.rdb.SetEx(ctx, key, bs, c.ttl).Err()
	}
	return out, nil
}
