package editor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/cache"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/queue"
)

// Gateway persists a partial update of a service.
type Gateway interface {
	Save(ctx context.Context, scope Scope, entityID uint64, patch map[string]any) (*model.Service, error)
}

// ServiceWriter applies a sparse field set to a service owned by ownerID
// and returns the stored record.
type ServiceWriter interface {
	Patch(ctx context.Context, id, ownerID uint64, patch map[string]any) (*model.Service, error)
}

// ActivityPublisher emits domain events; failures are logged, never fatal.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// ServiceGateway is the Gateway backed by the service repository.  Saves of
// the same entity are serialised; saves of different entities run in
// parallel.  Nothing is retried.
type ServiceGateway struct {
	writer ServiceWriter
	events ActivityPublisher
	log    *zap.Logger
	locks  keyedMutex
}

// NewServiceGateway wires a gateway.  events may be nil.
func NewServiceGateway(w ServiceWriter, events ActivityPublisher, log *zap.Logger) *ServiceGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &ServiceGateway{writer: w, events: events, log: log}
}

// Save writes patch.  On success the cached read of the entity is
// invalidated and an activity event is published in the background.
func (g *ServiceGateway) Save(ctx context.Context, scope Scope, entityID uint64, patch map[string]any) (*model.Service, error) {
	unlock := g.locks.lock(entityID)
	defer unlock()

	svc, err := g.writer.Patch(ctx, entityID, scope.User.UserID, patch)
	if err != nil {
		g.log.Warn("service save rejected",
			zap.Uint64("service_id", entityID),
			zap.Uint64("user_id", scope.User.UserID),
			zap.Error(err))
		return nil, err
	}
	if scope.Cache != nil {
		if err := scope.Cache.Invalidate(ctx, cache.ServiceKey(entityID)); err != nil {
			g.log.Warn("service cache invalidation failed", zap.Uint64("service_id", entityID), zap.Error(err))
		}
	}
	if g.events != nil {
		ev := queue.ActivityEvent{
			Type:       queue.ActivityServiceUpdated,
			ServiceID:  entityID,
			UserID:     scope.User.UserID,
			Fields:     fieldNames(patch),
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.events.Publish(pctx, ev); err != nil {
				g.log.Warn("activity publish failed", zap.Uint64("service_id", entityID), zap.Error(err))
			}
		}()
	}
	return svc, nil
}

func fieldNames(patch map[string]any) []string {
	out := make([]string, 0, len(patch))
	for k := range patch {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// keyedMutex hands out one mutex per entity id and forgets it once no
// caller holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id uint64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[uint64]*refMutex{}
	}
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
