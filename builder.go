package goIdentity

import (
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/cooldown"
	"github.com/MrEthical07/goIdentity/snapshot"
)

// Builder assembles an Engine. Calls after Build panic.
type Builder struct {
	config        Config
	backend       Backend
	snapshotStore snapshot.Store
	cooldownStore cooldown.Store
	logger        *zap.Logger
	auditSink     AuditSink
	built         bool
}

// New returns a Builder preloaded with default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

func (b *Builder) checkBuilt() {
	if b.built {
		panic("goIdentity: builder reused after Build")
	}
}

// WithConfig replaces the configuration wholesale. Zero values are filled with
// defaults at Build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.checkBuilt()
	b.config = cfg
	return b
}

// WithBackend sets the transport used for every remote operation. Required.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.checkBuilt()
	b.backend = backend
	return b
}

// WithSnapshotStore sets the durable current-identity store. Defaults to an
// in-memory store, which does not survive process restarts.
func (b *Builder) WithSnapshotStore(store snapshot.Store) *Builder {
	b.checkBuilt()
	b.snapshotStore = store
	return b
}

// WithCooldownStore sets the verification cooldown store. Defaults to an
// in-memory store.
func (b *Builder) WithCooldownStore(store cooldown.Store) *Builder {
	b.checkBuilt()
	b.cooldownStore = store
	return b
}

// WithRedis backs both the snapshot store and the cooldown store with the
// given client, unless they were set explicitly.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.checkBuilt()
	if b.snapshotStore == nil {
		b.snapshotStore = snapshot.NewRedisStore(client)
	}
	if b.cooldownStore == nil {
		b.cooldownStore = cooldown.NewRedisStore(client)
	}
	return b
}

// WithLogger sets the logger used for non-fatal internal failures, such as a
// snapshot write that does not stick. Defaults to zap.NewNop().
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.checkBuilt()
	b.logger = logger
	return b
}

// WithAuditSink enables audit dispatch to the given sink. Enablement is
// resolved at Build, so the call order relative to WithConfig does not
// matter.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.checkBuilt()
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.checkBuilt()
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	b.checkBuilt()
	if b.backend == nil {
		return nil, errors.New("goIdentity: backend is required")
	}

	if b.auditSink != nil {
		b.config.Audit.Enabled = true
	}
	b.config.applyDefaults()
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	snapshotStore := b.snapshotStore
	if snapshotStore == nil {
		snapshotStore = snapshot.NewMemoryStore()
	}
	cooldownStore := b.cooldownStore
	if cooldownStore == nil {
		cooldownStore = cooldown.NewMemoryStore()
	}

	metrics := NewMetrics(b.config.Metrics)

	engine := &Engine{
		config:  b.config,
		backend: b.backend,
		current: newCurrentIdentityStore(snapshotStore, b.config.Snapshot.Key, logger, metrics),
		verification: &verificationFlow{
			requests: make(map[string]*verificationRequest),
			cooldown: cooldownStore,
		},
		metrics: metrics,
		logger:  logger,
	}
	engine.anon.deviceID = uuid.NewString()

	if b.config.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = audit.NoOpSink{}
		}
		engine.audit = newAuditDispatcher(b.config.Audit, sink)
	}

	b.built = true
	return engine, nil
}
