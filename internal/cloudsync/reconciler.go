package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/schema"
	"github.com/jask/calendarspent/internal/session"
)

var (
	// ErrAuth means the session is missing, expired or rejected.
	ErrAuth = errors.New("sync: not authorized")
	// ErrNetwork means the remote store could not be reached or failed.
	ErrNetwork = errors.New("sync: remote unavailable")
)

// Remote is the per-user remote copy.
type Remote interface {
	Pull(ctx context.Context, userID string) (model.Snapshot, error)
	Push(ctx context.Context, userID string, changes model.Snapshot) error
}

// Stats describes a finished sync.
type Stats struct {
	Pulled int
	Pushed int
}

// Reconciler runs pull, merge, migrate, push, apply.
type Reconciler struct {
	Remote Remote
	Now    func() time.Time
}

func NewReconciler(remote Remote) *Reconciler {
	return &Reconciler{Remote: remote, Now: time.Now}
}

// Sync merges local with the remote copy of sess's user and hands the
// result to apply. Any failure before apply returns an error wrapping
// ErrAuth or ErrNetwork and leaves local state to the caller untouched.
func (r *Reconciler) Sync(ctx context.Context, sess session.Session, local model.Snapshot, apply func(model.Snapshot) error) (Stats, error) {
	if err := sess.Check(r.Now()); err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	remote, err := r.Remote.Pull(ctx, sess.UserID)
	if err != nil {
		return Stats{}, classify("pull", err)
	}

	merged := Merge(local, remote)
	schema.Apply(&merged)

	changes := Diff(merged, remote)
	stats := Stats{Pulled: Size(remote), Pushed: Size(changes)}
	if stats.Pushed > 0 {
		if err := r.Remote.Push(ctx, sess.UserID, changes); err != nil {
			return Stats{}, classify("push", err)
		}
	}

	if err := apply(merged); err != nil {
		return stats, fmt.Errorf("apply merged state: %w", err)
	}
	return stats, nil
}

func classify(op string, err error) error {
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrNetwork) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
}
