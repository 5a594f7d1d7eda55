package services

import (
	"context"
	"encoding/json"
	"time"

	"TenantHub/blob"
	"TenantHub/events"
	"TenantHub/metrics"
	"TenantHub/store"

	redis "github.com/KanapuramVaishnavi/Core/config/redis"
	"go.uber.org/zap"
)

const CompanyKey = "COMPANY:"

const defaultStagingDir = "_staging"

// defaultSweepGrace keeps the sweep away from files and directories written
// by an upload or create that has not stored its record yet.
const defaultSweepGrace = time.Hour

type Cache interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// RedisCache uses the redis client opened by the Core server bootstrap.
type RedisCache struct {
	getCache func(context.Context, string, *map[string]interface{}) (bool, error)
}

/*
* Core hands cached values back as a generic map
* Re-encode the map as JSON and decode it into out
 */
func (r RedisCache) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	get := r.getCache
	if get == nil {
		get = redis.GetCache
	}
	var raw map[string]interface{}
	found, err := get(ctx, key, &raw)
	if err != nil || !found {
		return false, err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	return redis.SetCache(ctx, key, value)
}

func (RedisCache) Delete(ctx context.Context, key string) error {
	return redis.DeleteCache(ctx, key)
}

type noCache struct{}

func (noCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (noCache) Set(context.Context, string, interface{}) error         { return nil }
func (noCache) Delete(context.Context, string) error                   { return nil }

// Deps are the collaborators shared by every service.
type Deps struct {
	Records    store.RecordStore
	Blobs      blob.Store
	Cache      Cache
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Log        *zap.Logger
	StagingDir string
	SweepGrace time.Duration
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = noCache{}
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.StagingDir == "" {
		d.StagingDir = defaultStagingDir
	}
	if d.SweepGrace <= 0 {
		d.SweepGrace = defaultSweepGrace
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// publish never fails the caller; a lost event is only logged.
func (d Deps) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = d.Now()
	}
	if err := d.Events.Publish(ctx, e); err != nil {
		d.Log.Warn("Error from publish", zap.String("event", e.Type), zap.String("tenantId", e.TenantID), zap.Error(err))
	}
}

func (d Deps) evictCompany(ctx context.Context, tenantID string) error {
	return d.Cache.Delete(ctx, CompanyKey+tenantID)
}
