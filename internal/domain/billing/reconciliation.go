package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// ReconciliationStatus represents the lifecycle of a daily reconciliation
type ReconciliationStatus string

const (
	ReconciliationStatusDraft     ReconciliationStatus = "DRAFT"
	ReconciliationStatusReviewed  ReconciliationStatus = "REVIEWED"
	ReconciliationStatusFinalized ReconciliationStatus = "FINALIZED"
	ReconciliationStatusCancelled ReconciliationStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReconciliationStatus
func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case ReconciliationStatusDraft, ReconciliationStatusReviewed,
		ReconciliationStatusFinalized, ReconciliationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReconciliationStatus
func (s ReconciliationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the reconciliation can no longer change
func (s ReconciliationStatus) IsTerminal() bool {
	return s == ReconciliationStatusFinalized || s == ReconciliationStatusCancelled
}

// CanRecompute returns true while totals may still be refreshed
func (s ReconciliationStatus) CanRecompute() bool {
	return s == ReconciliationStatusDraft
}

// ChannelTotals holds settled revenue per channel, stored as JSONB
type ChannelTotals map[string]decimal.Decimal

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c ChannelTotals) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *ChannelTotals) Scan(value interface{}) error {
	if value == nil {
		*c = ChannelTotals{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ChannelTotals: unsupported type")
	}

	if len(bytes) == 0 {
		*c = ChannelTotals{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Total sums every channel bucket
func (c ChannelTotals) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range c {
		total = total.Add(v)
	}
	return total
}

// ReconciliationTotals is the recomputed financial snapshot applied to
// a draft reconciliation.
type ReconciliationTotals struct {
	RevenueByChannel      ChannelTotals
	OutstandingTotal      decimal.Decimal
	OutstandingVisitCount int
	VisitsClosed          int
	VisitsTouched         int
	LeakCount             int
	LeakAmount            decimal.Decimal
}

// DailyReconciliation is the once-per-day closing snapshot of financial
// activity. Exactly one record may exist per calendar date; the store's
// date-unique index makes concurrent creators converge on a single row.
// Once finalized, every field except notes is immutable.
type DailyReconciliation struct {
	shared.BaseAggregateRoot
	Date                  time.Time            `json:"date" gorm:"type:date;not null;uniqueIndex"`
	Status                ReconciliationStatus `json:"status" gorm:"size:20;not null;index"`
	RevenueByChannel      ChannelTotals        `json:"revenue_by_channel" gorm:"type:jsonb"`
	TotalRevenue          decimal.Decimal      `json:"total_revenue" gorm:"type:decimal(15,2);not null"`
	OutstandingTotal      decimal.Decimal      `json:"outstanding_total" gorm:"type:decimal(15,2);not null"`
	OutstandingVisitCount int                  `json:"outstanding_visit_count" gorm:"not null"`
	VisitsClosed          int                  `json:"visits_closed" gorm:"not null"`
	VisitsTouched         int                  `json:"visits_touched" gorm:"not null"`
	LeakCount             int                  `json:"leak_count" gorm:"not null"`
	LeakAmount            decimal.Decimal      `json:"leak_amount" gorm:"type:decimal(15,2);not null"`
	PreparedBy            uuid.UUID            `json:"prepared_by" gorm:"type:uuid;not null"`
	ReviewedBy            *uuid.UUID           `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt            *time.Time           `json:"reviewed_at"`
	FinalizedBy           *uuid.UUID           `json:"finalized_by" gorm:"type:uuid"`
	FinalizedAt           *time.Time           `json:"finalized_at"`
	CancelledBy           *uuid.UUID           `json:"cancelled_by" gorm:"type:uuid"`
	CancelledAt           *time.Time           `json:"cancelled_at"`
	CancelReason          string               `json:"cancel_reason" gorm:"size:255"`
	Notes                 string               `json:"notes" gorm:"size:1000"`
}

// NewDailyReconciliation opens a draft reconciliation for a calendar date
func NewDailyReconciliation(date time.Time, preparedBy uuid.UUID) (*DailyReconciliation, error) {
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Reconciliation date cannot be zero")
	}
	if preparedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PREPARER", "Preparer identity is required")
	}

	dr := &DailyReconciliation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Date:              normalizeDate(date),
		Status:            ReconciliationStatusDraft,
		RevenueByChannel:  ChannelTotals{},
		TotalRevenue:      decimal.Zero,
		OutstandingTotal:  decimal.Zero,
		LeakAmount:        decimal.Zero,
		PreparedBy:        preparedBy,
	}

	dr.AddDomainEvent(NewReconciliationCreatedEvent(dr))

	return dr, nil
}

// normalizeDate truncates to midnight UTC so the date-unique index
// compares calendar dates, not instants
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsFinalized returns true once the record has been finalized
func (dr *DailyReconciliation) IsFinalized() bool {
	return dr.Status == ReconciliationStatusFinalized
}

// ApplyTotals overwrites the computed snapshot. Allowed only while the
// record can still be recomputed (draft status).
func (dr *DailyReconciliation) ApplyTotals(totals ReconciliationTotals) error {
	if !dr.Status.CanRecompute() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot recompute reconciliation in %s status", dr.Status))
	}

	channels := totals.RevenueByChannel
	if channels == nil {
		channels = ChannelTotals{}
	}

	dr.RevenueByChannel = channels
	dr.TotalRevenue = channels.Total()
	dr.OutstandingTotal = totals.OutstandingTotal
	dr.OutstandingVisitCount = totals.OutstandingVisitCount
	dr.VisitsClosed = totals.VisitsClosed
	dr.VisitsTouched = totals.VisitsTouched
	dr.LeakCount = totals.LeakCount
	dr.LeakAmount = totals.LeakAmount
	dr.UpdatedAt = time.Now()
	dr.IncrementVersion()

	return nil
}

// MarkReviewed records an optional review step before finalization
func (dr *DailyReconciliation) MarkReviewed(reviewedBy uuid.UUID) error {
	if dr.Status != ReconciliationStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot review reconciliation in %s status", dr.Status))
	}
	if reviewedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer identity is required")
	}

	now := time.Now()
	dr.Status = ReconciliationStatusReviewed
	dr.ReviewedBy = &reviewedBy
	dr.ReviewedAt = &now
	dr.UpdatedAt = now
	dr.IncrementVersion()

	return nil
}

// Finalize freezes the reconciliation. After this, only notes may change.
func (dr *DailyReconciliation) Finalize(finalizedBy uuid.UUID, notes string) error {
	if dr.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finalize reconciliation in %s status", dr.Status))
	}
	if finalizedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_FINALIZER", "Finalizer identity is required")
	}

	now := time.Now()
	dr.Status = ReconciliationStatusFinalized
	dr.FinalizedBy = &finalizedBy
	dr.FinalizedAt = &now
	if notes != "" {
		dr.Notes = notes
	}
	dr.UpdatedAt = now
	dr.IncrementVersion()

	dr.AddDomainEvent(NewReconciliationFinalizedEvent(dr))

	return nil
}

// Cancel abandons a reconciliation that was opened in error
func (dr *DailyReconciliation) Cancel(cancelledBy uuid.UUID, reason string) error {
	if dr.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel reconciliation in %s status", dr.Status))
	}
	if cancelledBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Canceller identity is required")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	dr.Status = ReconciliationStatusCancelled
	dr.CancelledBy = &cancelledBy
	dr.CancelledAt = &now
	dr.CancelReason = reason
	dr.UpdatedAt = now
	dr.IncrementVersion()

	return nil
}

// UpdateNotes edits the free-text notes. Notes stay editable even after
// finalization; it is the one mutable field on a finalized record.
func (dr *DailyReconciliation) UpdateNotes(notes string) {
	dr.Notes = notes
	dr.UpdatedAt = time.Now()
	dr.IncrementVersion()
}

// DiffersIgnoringNotes reports whether any frozen field differs from the
// stored row. The persistence layer runs this pre-write check before
// saving a finalized record and rejects the write when it returns true.
func (dr *DailyReconciliation) DiffersIgnoringNotes(stored *DailyReconciliation) bool {
	if stored == nil {
		return true
	}
	if !dr.Date.Equal(stored.Date) ||
		dr.Status != stored.Status ||
		!dr.TotalRevenue.Equal(stored.TotalRevenue) ||
		!dr.OutstandingTotal.Equal(stored.OutstandingTotal) ||
		dr.OutstandingVisitCount != stored.OutstandingVisitCount ||
		dr.VisitsClosed != stored.VisitsClosed ||
		dr.VisitsTouched != stored.VisitsTouched ||
		dr.LeakCount != stored.LeakCount ||
		!dr.LeakAmount.Equal(stored.LeakAmount) ||
		dr.PreparedBy != stored.PreparedBy {
		return true
	}
	if len(dr.RevenueByChannel) != len(stored.RevenueByChannel) {
		return true
	}
	for channel, amount := range dr.RevenueByChannel {
		storedAmount, ok := stored.RevenueByChannel[channel]
		if !ok || !amount.Equal(storedAmount) {
			return true
		}
	}
	return false
}
