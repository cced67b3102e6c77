package dto

// RecordPaymentRequest represents a request to record a payment against a visit
type RecordPaymentRequest struct {
	Amount            float64 `json:"amount" binding:"required,gt=0"`
	Method            string  `json:"method" binding:"required,payment_method"`
	ExternalReference string  `json:"external_reference" binding:"omitempty,max=100"`
}

// ConfirmChargeRequest represents a request to confirm a charge as paid
type ConfirmChargeRequest struct {
	Method string `json:"method" binding:"required,payment_method"`
}

// ValidatePaymentRequest represents a payment amount pre-check
type ValidatePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// DetectLeakRequest represents a request to check a single entity for a
// revenue leak
type DetectLeakRequest struct {
	EntityType string `json:"entity_type" binding:"required,leak_entity"`
	EntityID   string `json:"entity_id" binding:"required,uuid"`
}

// ResolveLeakRequest represents a request to resolve a leak record
type ResolveLeakRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=500"`
}

// CreateReconciliationRequest represents a request to open a daily
// reconciliation run
type CreateReconciliationRequest struct {
	Date              string `json:"date" binding:"required"`
	CloseActiveVisits bool   `json:"close_active_visits"`
}

// FinalizeReconciliationRequest represents a request to freeze a
// reconciliation record
type FinalizeReconciliationRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=1000"`
}

// CancelReconciliationRequest represents a request to void a
// reconciliation record
type CancelReconciliationRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// UpdateReconciliationNotesRequest carries replacement notes
type UpdateReconciliationNotesRequest struct {
	Notes string `json:"notes" binding:"required,max=1000"`
}
