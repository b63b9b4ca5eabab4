package domain

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is the stable identity of one logical document within a tenant,
// keyed by (TenantID, LogicalKey).
type Artifact struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	LogicalKey  string
	DisplayName string
	CreatedAt   time.Time
}

// ArtifactVersion is an immutable content snapshot of an Artifact.
// VersionInt starts at 1 and increases by one per distinct digest.
type ArtifactVersion struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	ArtifactID       uuid.UUID
	VersionInt       int
	OriginalFilename string
	SHA256           string
	SizeBytes        int64
	MIME             string
	ObjectRelPath    string
	UploadedBy       *uuid.UUID
	CreatedAt        time.Time
}
