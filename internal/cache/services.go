package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// ServiceSource is the authoritative store of services.
type ServiceSource interface {
	GetByID(ctx context.Context, id uint64) (*model.Service, error)
}

// Services is a read-through service reader.  Cache failures are logged
// and fall back to the source.
type Services struct {
	src   ServiceSource
	store *Store
	log   *zap.Logger
}

// NewServices wires a read-through reader.
func NewServices(src ServiceSource, store *Store, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}
	return &Services{src: src, store: store, log: log}
}

// GetService returns the service, from cache when possible.
func (s *Services) GetService(ctx context.Context, id uint64) (*model.Service, error) {
	var cached model.Service
	hit, err := s.store.GetJSON(ctx, ServiceKey(id), &cached)
	if err != nil {
		s.log.Warn("service cache read failed", zap.Uint64("service_id", id), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}
	// The generation is read before the source so a patch committed during
	// the fetch makes the write below a no-op.
	gen, genErr := s.store.Generation(ctx, ServiceKey(id))
	svc, err := s.src.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.log.Warn("service cache generation read failed", zap.Uint64("service_id", id), zap.Error(genErr))
		return svc, nil
	}
	if _, err := s.store.SetJSONAt(ctx, ServiceKey(id), gen, svc); err != nil {
		s.log.Warn("service cache write failed", zap.Uint64("service_id", id), zap.Error(err))
	}
	return svc, nil
}

// Invalidate drops cached entries; it satisfies editor.Invalidator.
func (s *Services) Invalidate(ctx context.Context, keys ...string) error {
	return s.store.Invalidate(ctx, keys...)
}
