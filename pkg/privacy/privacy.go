// Package privacy maps internal profile ids to short opaque public ids.
//
// A public id is the first 16 hex characters of HMAC-SHA256(secret, id).
// The mapping is stable for the lifetime of the secret and is never
// persisted; reverse lookups recompute the hash for every known id.
package privacy

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// PublicIDLength is the number of hex characters kept from the digest
const PublicIDLength = 16

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Lister enumerates every known internal profile id
type Lister interface {
	ListProfileIDs(ctx context.Context) ([]string, error)
}

// Memo remembers successful reverse lookups (see pkg/cache)
type Memo interface {
	GetPublicIDOwner(ctx context.Context, publicID string) (string, error)
	SetPublicIDOwner(ctx context.Context, publicID, userID string) error
}

// Resolver converts between internal ids and public ids
type Resolver struct {
	key    []byte
	lister Lister
	memo   Memo
}

// NewResolver creates a Resolver. memo may be nil.
func NewResolver(secret string, lister Lister, memo Memo) *Resolver {
	return &Resolver{
		key:    []byte(secret),
		lister: lister,
		memo:   memo,
	}
}

// ToPublicID returns the public id of an internal id
func (r *Resolver) ToPublicID(internalID string) string {
	if internalID == "" {
		return ""
	}
	mac := hmac.New(sha256.New, r.key)
	mac.Write([]byte(internalID)) //nolint:errcheck
	return hex.EncodeToString(mac.Sum(nil))[:PublicIDLength]
}

// PublicIDs maps each internal id to its public id
func (r *Resolver) PublicIDs(internalIDs []string) map[string]string {
	out := make(map[string]string, len(internalIDs))
	for _, id := range internalIDs {
		if id == "" {
			continue
		}
		out[id] = r.ToPublicID(id)
	}
	return out
}

// FromPublicID finds the internal id whose public id equals publicID.
// It is O(n) in the number of profiles unless the memo already knows the answer.
func (r *Resolver) FromPublicID(ctx context.Context, publicID string) (string, bool, error) {
	if len(publicID) != PublicIDLength {
		return "", false, nil
	}

	if r.memo != nil {
		// memo 장애(miss 포함)는 조회 실패가 아니므로 스캔으로 진행
		uid, err := r.memo.GetPublicIDOwner(ctx, publicID)
		if err == nil && r.ToPublicID(uid) == publicID {
			return uid, true, nil
		}
	}

	ids, err := r.lister.ListProfileIDs(ctx)
	if err != nil {
		return "", false, err
	}
	for _, id := range ids {
		if hmac.Equal([]byte(r.ToPublicID(id)), []byte(publicID)) {
			if r.memo != nil {
				r.memo.SetPublicIDOwner(ctx, publicID, id) //nolint:errcheck
			}
			return id, true, nil
		}
	}
	return "", false, nil
}

// Resolve accepts either a raw internal id (UUID form) or a public id
func (r *Resolver) Resolve(ctx context.Context, idOrPublicID string) (string, bool, error) {
	if idOrPublicID == "" {
		return "", false, nil
	}
	if LooksLikeUUID(idOrPublicID) {
		return idOrPublicID, true, nil
	}
	return r.FromPublicID(ctx, idOrPublicID)
}

// LooksLikeUUID reports whether s is shaped like a canonical UUID
func LooksLikeUUID(s string) bool {
	return uuidPattern.MatchString(s)
}
