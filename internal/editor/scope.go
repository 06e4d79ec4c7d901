package editor

import "context"

// Principal is the authenticated user an editor session acts for.
type Principal struct {
	UserID uint64
	Role   string
}

// Invalidator drops cached reads so the next read reflects a write.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Scope carries the capabilities a session needs from its surroundings.
// It is passed explicitly instead of being read from process-wide state.
type Scope struct {
	User  Principal
	Cache Invalidator
}
