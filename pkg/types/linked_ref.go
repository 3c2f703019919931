package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
)

// LinkedRef is the tagged form of a document's weak reference: the kind is
// type-checked, the target's existence deliberately is not. Relation plus
// lookup, never ownership.
type LinkedRef struct {
	Kind enums.EntityKind `json:"kind"`
	ID   uuid.UUID        `json:"id"`
}

// Validate checks the tag and id are usable.
func (r LinkedRef) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("invalid linked entity kind %q", r.Kind)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("linked id is required")
	}
	return nil
}

// String encodes the reference as the stored opaque "kind:id" token.
func (r LinkedRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ParseLinkedRef decodes a stored "kind:id" token.
func ParseLinkedRef(value string) (LinkedRef, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return LinkedRef{}, fmt.Errorf("invalid linked reference %q", value)
	}
	kind, err := enums.ParseEntityKind(parts[0])
	if err != nil {
		return LinkedRef{}, err
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return LinkedRef{}, fmt.Errorf("invalid linked reference id: %w", err)
	}
	return LinkedRef{Kind: kind, ID: id}, nil
}
