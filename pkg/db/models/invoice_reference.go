package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceReference describes a billing window against an invoice: the billed
// period, an optional due date, and when it was paid. Additive metadata only;
// it never feeds the invoice totals.
type InvoiceReference struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID  uuid.UUID  `gorm:"column:invoice_id;type:uuid;not null"`
	PeriodFrom time.Time  `gorm:"column:period_from;not null"`
	PeriodTo   time.Time  `gorm:"column:period_to;not null"`
	DueDate    *time.Time `gorm:"column:due_date"`
	PaidDate   *time.Time `gorm:"column:paid_date"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
