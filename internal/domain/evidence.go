package domain

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceFile is a stored byproduct of an inspection. Append-only.
type EvidenceFile struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	InspectionID  uuid.UUID
	Kind          EvidenceKind
	Filename      string
	SHA256        string
	SizeBytes     int64
	ObjectRelPath string
	CreatedAt     time.Time
}
