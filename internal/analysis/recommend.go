package analysis

import (
	"slices"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const (
	recMarkings       = "Apply appropriate CUI markings per NARA CUI Registry and organizational marking standard."
	recLeastPrivilege = "Restrict access to authorized users and enforce least privilege for all CUI repositories."
	recTransit        = "Ensure encryption in transit (TLS 1.2+) for any CUI transfer channels."
	recAtRest         = "Ensure encryption at rest for CUI stored in file shares, object storage, and backups."
	recSSP            = "Document CUI handling scope, boundary, and controls in the SSP; update data flow diagrams."
	recAudit          = "Enable and retain audit logs for CUI access, changes, downloads, and sharing events."
	recMissing        = "Add missing markings and dissemination controls; prohibit sharing until reclassified/marked."
	recQuarantine     = "Treat as high-risk CUI exposure: quarantine distribution and initiate incident review."
	recNone           = "No strong CUI indicators detected. Apply standard information handling and validate classification."
	recReview         = "Review sensitive indicators and ensure appropriate access controls and retention policies."

	mappingNotes = "Mappings are guidance aids; validate applicability to your system boundary and contract requirements."
)

// Recommendations derives the ordered remediation list from a verdict.
func Recommendations(detected bool, level domain.RiskLevel, score int, missingMarkings bool) []string {
	if !detected {
		recs := []string{recNone}
		if score > 0 {
			recs = append(recs, recReview)
		}
		return recs
	}

	recs := []string{recMarkings, recLeastPrivilege, recTransit, recAtRest, recSSP, recAudit}
	if missingMarkings {
		recs = slices.Insert(recs, 1, recMissing)
	}
	if level == domain.RiskLevelHigh {
		recs = append([]string{recQuarantine}, recs...)
	}
	return recs
}

// ComplianceMapping returns the static control mapping attached to positive detections.
func ComplianceMapping() *domain.ComplianceMapping {
	return &domain.ComplianceMapping{
		Frameworks: []domain.FrameworkControls{
			{
				Framework: "CMMC_Level_2",
				Controls: []domain.Control{
					{ID: "AC.1.001", Title: "Limit system access to authorized users"},
					{ID: "AC.3.018", Title: "Encrypt CUI at rest"},
					{ID: "SC.3.177", Title: "Encrypt CUI in transit"},
					{ID: "AU.2.041", Title: "Audit and accountability (logging)"},
				},
			},
			{
				Framework: "NIST_SP_800_171",
				Controls: []domain.Control{
					{ID: "3.1.1", Title: "Limit system access to authorized users"},
					{ID: "3.13.8", Title: "Implement cryptographic protections for CUI"},
					{ID: "3.3.1", Title: "Create and retain system audit logs"},
				},
			},
			{
				Framework: "FedRAMP_Moderate",
				Controls: []domain.Control{
					{ID: "AC-2", Title: "Account management (authorized users)"},
					{ID: "SC-13", Title: "Cryptographic protection"},
					{ID: "AU-2", Title: "Event logging"},
				},
			},
		},
		Notes: mappingNotes,
	}
}
