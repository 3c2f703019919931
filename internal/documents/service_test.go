package documents

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/types"
)

func setupDocumentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	documents := `
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  linked_kind TEXT NOT NULL,
  linked_id TEXT NOT NULL,
  label TEXT NOT NULL,
  url TEXT NOT NULL,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_linked ON documents (linked_kind, linked_id);`
	require.NoError(t, conn.Exec(documents).Error)
	return conn
}

func newDocumentsService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(NewRepository(setupDocumentsTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestAttachAndResolve(t *testing.T) {
	svc := newDocumentsService(t)
	ctx := context.Background()

	invoiceID := uuid.New()
	ref := types.LinkedRef{Kind: enums.EntityKindInvoice, ID: invoiceID}

	doc, err := svc.Attach(ctx, AttachInput{
		LinkedRef: ref.String(),
		Label:     "signed-invoice.pdf",
		URL:       "https://files.example.com/signed-invoice.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EntityKindInvoice, doc.LinkedKind)
	assert.Equal(t, invoiceID, doc.LinkedID)

	resolved, err := svc.FindByLinked(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, resolved.ID)
	assert.Equal(t, ref, resolved.Linked())
}

func TestAttachOnePerEntity(t *testing.T) {
	svc := newDocumentsService(t)
	ctx := context.Background()

	ref := types.LinkedRef{Kind: enums.EntityKindPurchaseOrder, ID: uuid.New()}
	_, err := svc.Attach(ctx, AttachInput{
		LinkedRef: ref.String(),
		Label:     "po.pdf",
		URL:       "https://files.example.com/po.pdf",
	})
	require.NoError(t, err)

	_, err = svc.Attach(ctx, AttachInput{
		LinkedRef: ref.String(),
		Label:     "po-v2.pdf",
		URL:       "https://files.example.com/po-v2.pdf",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateKey))

	// Same id under a different kind is a different reference.
	other := types.LinkedRef{Kind: enums.EntityKindInvoice, ID: ref.ID}
	_, err = svc.Attach(ctx, AttachInput{
		LinkedRef: other.String(),
		Label:     "inv.pdf",
		URL:       "https://files.example.com/inv.pdf",
	})
	require.NoError(t, err)
}

func TestAttachRejectsMalformedRef(t *testing.T) {
	svc := newDocumentsService(t)
	ctx := context.Background()

	for _, raw := range []string{
		"not-a-ref",
		"warehouse:" + uuid.NewString(),
		fmt.Sprintf("%s:not-a-uuid", enums.EntityKindVendor),
	} {
		_, err := svc.Attach(ctx, AttachInput{
			LinkedRef: raw,
			Label:     "x.pdf",
			URL:       "https://files.example.com/x.pdf",
		})
		require.Error(t, err, "raw ref %q", raw)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "raw ref %q", raw)
	}
}

func TestAttachmentSurvivesTargetDeletion(t *testing.T) {
	svc := newDocumentsService(t)
	ctx := context.Background()

	// The reference is weak: nothing checks the vendor row, so attaching to
	// an id that no longer (or never did) exist still succeeds.
	ref := types.LinkedRef{Kind: enums.EntityKindVendor, ID: uuid.New()}
	doc, err := svc.Attach(ctx, AttachInput{
		LinkedRef: ref.String(),
		Label:     "gst-certificate.pdf",
		URL:       "https://files.example.com/gst-certificate.pdf",
	})
	require.NoError(t, err)

	resolved, err := svc.FindByLinked(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, resolved.ID)
}

func TestRemove(t *testing.T) {
	svc := newDocumentsService(t)
	ctx := context.Background()

	ref := types.LinkedRef{Kind: enums.EntityKindLorryReceipt, ID: uuid.New()}
	doc, err := svc.Attach(ctx, AttachInput{
		LinkedRef: ref.String(),
		Label:     "lr.pdf",
		URL:       "https://files.example.com/lr.pdf",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, doc.ID))

	_, err = svc.Get(ctx, doc.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.Remove(ctx, doc.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
