package integrity

import (
	"time"

	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
)

// CheckBase compares the caller's last-known modification timestamp against
// the stored one. The model carries no version counter, so updated_at is the
// optimistic-concurrency token: mismatch means the caller must re-read and
// retry.
func CheckBase(base, current time.Time) error {
	if base.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base updated_at is required")
	}
	if !base.Equal(current) {
		return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
	}
	return nil
}
