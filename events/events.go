// Package events announces company and entity lifecycle changes on NATS.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const (
	TenantProvisioned = "tenant.provisioned"
	TenantDeleted     = "tenant.deleted"
	EntityRenamed     = "entity.renamed"
	EntityDeleted     = "entity.deleted"
)

type Event struct {
	Type       string                 `json:"type"`
	TenantID   string                 `json:"tenantId"`
	EntityKind string                 `json:"entityKind,omitempty"`
	EntityID   string                 `json:"entityId,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

type NatsConfig struct {
	URL           string
	Name          string
	SubjectPrefix string
	Timeout       time.Duration
	ReconnectWait time.Duration
}

type NatsPublisher struct {
	cfg NatsConfig
	nc  *nats.Conn
	mu  sync.Mutex
}

func NewNatsPublisher(cfg NatsConfig) (*NatsPublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url missing")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	return &NatsPublisher{cfg: cfg, nc: nc}, nil
}

// Subject builds the subject an event type is published on.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

func (p *NatsPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	msg := nats.NewMsg(Subject(p.cfg.SubjectPrefix, e.Type))
	msg.Data = body
	msg.Header.Set("Tenant-Id", e.TenantID)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.nc.PublishMsg(msg); err != nil {
		return errors.Wrapf(err, "publish %s", e.Type)
	}
	return nil
}

func (p *NatsPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
