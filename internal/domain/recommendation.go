package domain

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation lifecycle states.
const (
	RecommendationStatusPending  = "pending"
	RecommendationStatusApproved = "approved"
	RecommendationStatusRejected = "rejected"
)

// Recommendation is a tenant-scoped suggestion that an operator approves or
// rejects. It is the reference business entity mutated through the audit
// guard.
type Recommendation struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecommendation creates a pending recommendation for a tenant.
func NewRecommendation(tenantID uuid.UUID, title, body string) Recommendation {
	now := time.Now()
	return Recommendation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Title:     title,
		Body:      body,
		Status:    RecommendationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
