package view

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/models"
)

var (
	ErrWalletRequired = errors.New("Please connect your wallet")
	ErrInFlight       = errors.New("like already in progress")
)

// Outcome is how a toggle ended.
type Outcome int

const (
	// Rejected: a precondition failed and nothing changed.
	Rejected Outcome = iota
	// Applied: the server accepted the toggle and local state matches it.
	Applied
	// RolledBack: the server call failed and the previous state was restored.
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RolledBack:
		return "rolled back"
	default:
		return "rejected"
	}
}

// LikeRemote flips the caller's like on a dataset and reports the result.
type LikeRemote interface {
	ToggleLike(ctx context.Context, datasetID uuid.UUID) (models.LikeState, error)
}

// LikeToggle drives the like button of one dataset.
type LikeToggle struct {
	remote    LikeRemote
	wallet    func() string
	datasetID uuid.UUID

	mu       sync.Mutex
	state    models.LikeState
	inFlight bool
}

// NewLikeToggle starts from initial; wallet returns the connected wallet or "".
func NewLikeToggle(remote LikeRemote, wallet func() string, datasetID uuid.UUID, initial models.LikeState) *LikeToggle {
	return &LikeToggle{
		remote:    remote,
		wallet:    wallet,
		datasetID: datasetID,
		state:     initial,
	}
}

// State is what the button should show now.
func (t *LikeToggle) State() models.LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Pending reports whether a toggle is in flight; the control stays disabled meanwhile.
func (t *LikeToggle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Toggle flips the like locally, then asks the server. On failure the
// previous state comes back and the error is returned for the notification.
func (t *LikeToggle) Toggle(ctx context.Context) (Outcome, error) {
	t.mu.Lock()
	if t.wallet == nil || t.wallet() == "" {
		t.mu.Unlock()
		return Rejected, ErrWalletRequired
	}
	if t.inFlight {
		t.mu.Unlock()
		return Rejected, ErrInFlight
	}
	prev := t.state
	t.state = flip(prev)
	t.inFlight = true
	t.mu.Unlock()

	server, err := t.remote.ToggleLike(ctx, t.datasetID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight = false
	if err != nil {
		t.state = prev
		return RolledBack, err
	}
	t.state = server
	return Applied, nil
}

func flip(s models.LikeState) models.LikeState {
	if s.Liked {
		s.Liked = false
		if s.Likes > 0 {
			s.Likes--
		}
		return s
	}
	s.Liked = true
	s.Likes++
	return s
}
