package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/internal/purchasing"
	"github.com/jatinilogsolution/vendor-portal-sub000/internal/users"
	"github.com/jatinilogsolution/vendor-portal-sub000/internal/vendors"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  gstin TEXT,
  pan TEXT,
  payment_terms TEXT,
  contact_email TEXT,
  contact_phone TEXT,
  profile_completed INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  banned INTEGER NOT NULL DEFAULT 0,
  ban_reason TEXT,
  ban_expires_at DATETIME,
  vendor_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  po_number TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  created_by_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  subtotal TEXT NOT NULL,
  tax_rate TEXT NOT NULL,
  tax_amount TEXT NOT NULL,
  grand_total TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_purchase_orders_po_number ON purchase_orders (po_number);`, `
CREATE TABLE IF NOT EXISTS purchase_order_items (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  total TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  reference_number TEXT NOT NULL,
  invoice_number TEXT,
  vendor_id TEXT NOT NULL,
  po_id TEXT,
  subtotal TEXT NOT NULL,
  tax_rate TEXT NOT NULL,
  tax_amount TEXT NOT NULL,
  grand_total TEXT NOT NULL,
  has_discrepancy INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_reference_number ON invoices (reference_number);`, `
CREATE TABLE IF NOT EXISTS invoice_items (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  total TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS invoice_references (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  period_from DATETIME NOT NULL,
  period_to DATETIME NOT NULL,
  due_date DATETIME,
  paid_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS lr_requests (
  id TEXT PRIMARY KEY,
  lr_number TEXT NOT NULL UNIQUE,
  transporter_id TEXT NOT NULL,
  invoice_id TEXT,
  is_invoiced INTEGER NOT NULL DEFAULT 0,
  price_offered TEXT,
  price_settled TEXT,
  extra_cost TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type billingFixture struct {
	svc    *Service
	orders *purchasing.Service
	conn   *gorm.DB
}

func newBillingFixture(t *testing.T) billingFixture {
	t.Helper()

	conn := setupBillingTestDB(t)
	runner := db.FromConn(conn)
	vendorRepo := vendors.NewRepository(conn)
	orderSvc, err := purchasing.NewService(
		purchasing.NewRepository(conn),
		vendorRepo,
		users.NewRepository(conn),
		runner,
	)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), vendorRepo, orderSvc, runner)
	require.NoError(t, err)
	return billingFixture{svc: svc, orders: orderSvc, conn: conn}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func seedVendor(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, conn.Exec(
		`INSERT INTO vendors (id, name, is_active, created_at, updated_at) VALUES (?, 'Acme Logistics', 1, ?, ?)`,
		id.String(), time.Now().UTC(), time.Now().UTC(),
	).Error)
	return id
}

func seedUser(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, conn.Exec(
		`INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, 'Buyer', ?, ?)`,
		id.String(), fmt.Sprintf("buyer-%s@example.com", id.String()[:8]), time.Now().UTC(), time.Now().UTC(),
	).Error)
	return id
}

func refNumber() string {
	return "INV-" + uuid.NewString()[:8]
}

// issuedOrder creates and issues a purchase order with a 100.00 grand total.
func issuedOrder(t *testing.T, f billingFixture, vendorID uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	order, err := f.orders.Create(ctx, purchasing.CreateOrderInput{
		PONumber:    "PO-" + uuid.NewString()[:8],
		VendorID:    vendorID.String(),
		CreatedByID: seedUser(t, f.conn).String(),
		TaxRate:     dec("0"),
		Items: []purchasing.ItemInput{
			{Description: "Pallets", Quantity: dec("10"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)
	base, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.orders.Issue(ctx, order.ID, base.UpdatedAt)
	require.NoError(t, err)
	return order.ID
}

func TestCreateComputesTotals(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		TaxRate:         dec("0.18"),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("2"), UnitPrice: dec("10.00")},
			{Description: "Storage", Quantity: dec("3"), UnitPrice: dec("5.00")},
		},
	})
	require.NoError(t, err)
	assert.True(t, invoice.Subtotal.Equal(dec("35.00")), "subtotal %s", invoice.Subtotal)
	assert.True(t, invoice.TaxAmount.Equal(dec("6.30")), "tax %s", invoice.TaxAmount)
	assert.True(t, invoice.GrandTotal.Equal(dec("41.30")), "grand %s", invoice.GrandTotal)
	assert.False(t, invoice.HasDiscrepancy)
	assert.Nil(t, invoice.POID)
}

func TestCreateRejectsMismatchedTotals(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	_, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		TaxRate:         dec("0.18"),
		GrandTotal:      decPtr("999.99"),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("2"), UnitPrice: dec("10.00")},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeComputedValueMismatch))
}

func TestCreateDuplicateReferenceNumber(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	input := CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	}
	_, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateKey))
}

func TestCreateInvoiceNumberMayRepeat(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	label := "ACME/2026/042"
	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(ctx, CreateInvoiceInput{
			ReferenceNumber: refNumber(),
			InvoiceNumber:   &label,
			VendorID:        vendorID.String(),
			Items: []ItemInput{
				{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
			},
		})
		require.NoError(t, err)
	}
}

func TestCreateRejectsCrossVendorOrder(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorA := seedVendor(t, f.conn)
	vendorB := seedVendor(t, f.conn)
	orderID := issuedOrder(t, f, vendorA)

	poID := orderID.String()
	_, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorB.String(),
		POID:            &poID,
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	missing := uuid.NewString()
	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorB.String(),
		POID:            &missing,
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDanglingReference))
}

func TestInvoiceCoverageDrivesOrderStatus(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)
	orderID := issuedOrder(t, f, vendorID) // grand total 100.00
	poID := orderID.String()

	first, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		POID:            &poID,
		TaxRate:         dec("0"),
		Items: []ItemInput{
			{Description: "First delivery", Quantity: dec("4"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	order, err := f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusPartiallyInvoiced, order.Status)

	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		POID:            &poID,
		TaxRate:         dec("0"),
		Items: []ItemInput{
			{Description: "Second delivery", Quantity: dec("6"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	order, err = f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusFullyInvoiced, order.Status)

	// Deleting the first invoice drops coverage back below the grand total.
	loaded, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, first.ID, loaded.UpdatedAt))

	order, err = f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusPartiallyInvoiced, order.Status)
}

func TestCoverageLiftsDraftOrder(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	// Never issued; coverage alone must move the order out of draft.
	order, err := f.orders.Create(ctx, purchasing.CreateOrderInput{
		PONumber:    "PO-" + uuid.NewString()[:8],
		VendorID:    vendorID.String(),
		CreatedByID: seedUser(t, f.conn).String(),
		TaxRate:     dec("0"),
		Items: []purchasing.ItemInput{
			{Description: "Pallets", Quantity: dec("10"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseOrderStatusDraft, order.Status)
	poID := order.ID.String()

	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		POID:            &poID,
		TaxRate:         dec("0"),
		Items: []ItemInput{
			{Description: "Partial delivery", Quantity: dec("4"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	covered, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusPartiallyInvoiced, covered.Status)

	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		POID:            &poID,
		TaxRate:         dec("0"),
		Items: []ItemInput{
			{Description: "Final delivery", Quantity: dec("6"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	covered, err = f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusFullyInvoiced, covered.Status)
}

func TestCreateRejectsCancelledOrder(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)
	orderID := issuedOrder(t, f, vendorID)

	order, err := f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	_, err = f.orders.Cancel(ctx, orderID, order.UpdatedAt)
	require.NoError(t, err)

	poID := orderID.String()
	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		POID:            &poID,
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestSaveMatchesZeroRowsOnStaleTimestamp(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	created, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	repo := NewRepository(f.conn)
	invoice, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	// A guard built from an out-of-date timestamp must not touch the row.
	stale := *invoice
	note := "lost update"
	stale.Notes = &note
	rows, err := repo.Save(ctx, &stale, invoice.UpdatedAt.Add(-time.Second))
	require.NoError(t, err)
	assert.Zero(t, rows)

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Notes)

	// The matching timestamp goes through and bumps updated_at.
	rows, err = repo.Save(ctx, invoice, invoice.UpdatedAt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
}

func TestLineEditsRepriceAndRecompute(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)
	orderID := issuedOrder(t, f, vendorID)
	poID := orderID.String()

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		POID:            &poID,
		TaxRate:         dec("0"),
		Items: []ItemInput{
			{Description: "Delivery", Quantity: dec("5"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	base, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
	grown, err := f.svc.AddItem(ctx, invoice.ID, ItemInput{
		Description: "Detention charges",
		Quantity:    dec("1"),
		UnitPrice:   dec("50.00"),
	}, base.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, grown.GrandTotal.Equal(dec("100.00")), "grand %s", grown.GrandTotal)

	order, err := f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusFullyInvoiced, order.Status)

	trimmed, err := f.svc.RemoveItem(ctx, invoice.ID, grown.Items[1].ID, grown.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, trimmed.GrandTotal.Equal(dec("50.00")), "grand %s", trimmed.GrandTotal)

	order, err = f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusPartiallyInvoiced, order.Status)

	_, err = f.svc.RemoveItem(ctx, invoice.ID, trimmed.Items[0].ID, trimmed.UpdatedAt)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateTaxRateReprices(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		TaxRate:         dec("0"),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("2"), UnitPrice: dec("10.00")},
			{Description: "Storage", Quantity: dec("3"), UnitPrice: dec("5.00")},
		},
	})
	require.NoError(t, err)
	base, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, invoice.ID, UpdateInvoiceInput{
		TaxRate:       decPtr("0.18"),
		BaseUpdatedAt: base.UpdatedAt,
	})
	require.NoError(t, err)
	assert.True(t, updated.TaxAmount.Equal(dec("6.30")), "tax %s", updated.TaxAmount)
	assert.True(t, updated.GrandTotal.Equal(dec("41.30")), "grand %s", updated.GrandTotal)
}

func TestConcurrentWritersOneLoses(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)
	base, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)

	noteA := "writer A"
	_, err = f.svc.Update(ctx, invoice.ID, UpdateInvoiceInput{
		Notes:         &noteA,
		BaseUpdatedAt: base.UpdatedAt,
	})
	require.NoError(t, err)

	// The second writer still holds the pre-update timestamp.
	noteB := "writer B"
	_, err = f.svc.Update(ctx, invoice.ID, UpdateInvoiceInput{
		Notes:         &noteB,
		BaseUpdatedAt: base.UpdatedAt,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleWrite))

	loaded, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Notes)
	assert.Equal(t, noteA, *loaded.Notes)
}

func TestSetDiscrepancy(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)
	base, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)

	note := "short shipped two pallets"
	flagged, err := f.svc.SetDiscrepancy(ctx, invoice.ID, true, &note, base.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, flagged.HasDiscrepancy)
	// The flag never touches the money block.
	assert.True(t, flagged.GrandTotal.Equal(invoice.GrandTotal))
}

func TestBillingWindows(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	_, err = f.svc.AddReference(ctx, invoice.ID, ReferenceInput{PeriodFrom: to, PeriodTo: from})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	window, err := f.svc.AddReference(ctx, invoice.ID, ReferenceInput{PeriodFrom: from, PeriodTo: to})
	require.NoError(t, err)
	assert.Nil(t, window.PaidDate)

	before, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)

	paidAt := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	paid, err := f.svc.MarkReferencePaid(ctx, invoice.ID, window.ID, paidAt, window.UpdatedAt)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(paidAt))

	// A stamp carrying a timestamp from before the first stamp is stale.
	_, err = f.svc.MarkReferencePaid(ctx, invoice.ID, window.ID, paidAt, window.UpdatedAt)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleWrite))

	// Windows never feed the invoice totals.
	after, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, after.GrandTotal.Equal(before.GrandTotal))

	windows, err := f.svc.ListReferences(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, windows, 1)
}

func TestDeleteRestrictedByFreightLink(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	vendorID := seedVendor(t, f.conn)

	invoice, err := f.svc.Create(ctx, CreateInvoiceInput{
		ReferenceNumber: refNumber(),
		VendorID:        vendorID.String(),
		Items: []ItemInput{
			{Description: "Handling", Quantity: dec("1"), UnitPrice: dec("10.00")},
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Exec(
		`INSERT INTO lr_requests (id, lr_number, transporter_id, invoice_id, is_invoiced)
		 VALUES (?, ?, ?, ?, 1)`,
		uuid.NewString(), "LR-"+uuid.NewString()[:8], vendorID.String(), invoice.ID.String(),
	).Error)

	loaded, err := f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
	err = f.svc.Delete(ctx, invoice.ID, loaded.UpdatedAt)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
}
