package predictions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cropsense/cropsense-backend/internal/domain"
)

// ErrForbidden is returned when a caller tries to delete a prediction whose
// key does not carry the caller's own user prefix.
var ErrForbidden = errors.New("prediction belongs to another user")

// DefaultListLimit bounds history reads when the caller does not ask for a
// specific window.
const DefaultListLimit = 50

const keyPrefix = "prediction_"

// Key builds the record id for a user's prediction at a given timestamp
// (milliseconds since epoch). The user id is baked into the key so that a
// prefix scan yields exactly one user's records.
func Key(userID string, timestamp int64) string {
	return fmt.Sprintf("%s%s_%d", keyPrefix, userID, timestamp)
}

// UserPrefix is the scan prefix covering every prediction owned by userID.
func UserPrefix(userID string) string {
	return keyPrefix + userID + "_"
}

// OwnedBy reports whether the record id carries userID's ownership prefix.
func OwnedBy(id, userID string) bool {
	return strings.HasPrefix(id, UserPrefix(userID))
}

// Store persists resolved predictions keyed by user and time.
//
// Save assigns the timestamp (now, in milliseconds) when it is zero and
// derives the id from the owner and timestamp. Records are immutable;
// saving twice at the same millisecond overwrites, which is accepted.
//
// ListByUser returns the user's records sorted by timestamp descending.
// Insertion order is not trusted; the sort happens at read time.
// limit <= 0 means "no limit".
//
// GetByID returns nil without error when the id does not exist, and
// ErrForbidden when the id is not owned by userID.
//
// DeleteByID fails with ErrForbidden when the id is not owned by userID;
// deleting an id that does not exist is not an error.
type Store interface {
	Save(ctx context.Context, p *domain.Prediction) (string, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Prediction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Prediction, error)
	DeleteByID(ctx context.Context, userID, id string) error
}

func sortNewestFirst(preds []*domain.Prediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Timestamp > preds[j].Timestamp
	})
}

func clampToLimit(preds []*domain.Prediction, limit int) []*domain.Prediction {
	if limit > 0 && len(preds) > limit {
		return preds[:limit]
	}
	return preds
}
