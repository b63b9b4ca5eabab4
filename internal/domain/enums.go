package domain

// UserRole represents the authorization level of a user.
type UserRole string

const (
	UserRoleSuperadmin  UserRole = "superadmin"
	UserRoleTenantAdmin UserRole = "tenant_admin"
	UserRoleAnalyst     UserRole = "analyst"
	UserRoleViewer      UserRole = "viewer"
	UserRoleAuditor     UserRole = "auditor"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleSuperadmin, UserRoleTenantAdmin, UserRoleAnalyst, UserRoleViewer, UserRoleAuditor:
		return true
	}
	return false
}

// IsCrossTenant reports whether the role may act outside a single tenant.
func (r UserRole) IsCrossTenant() bool {
	return r == UserRoleSuperadmin || r == UserRoleAuditor
}

// AllUserRoles lists roles in descending privilege order.
func AllUserRoles() []UserRole {
	return []UserRole{UserRoleSuperadmin, UserRoleTenantAdmin, UserRoleAnalyst, UserRoleViewer, UserRoleAuditor}
}

// RunType classifies an inspection run.
type RunType string

const (
	RunTypeSingle RunType = "single"
	RunTypeBulk   RunType = "bulk"
	RunTypeQA     RunType = "qa"
	RunTypeManual RunType = "manual"
	RunTypeExport RunType = "export"
	RunTypeVerify RunType = "verify"
)

func (t RunType) String() string { return string(t) }

func (t RunType) IsValid() bool {
	switch t {
	case RunTypeSingle, RunTypeBulk, RunTypeQA, RunTypeManual, RunTypeExport, RunTypeVerify:
		return true
	}
	return false
}

// RiskLevel is the coarse verdict derived from the risk score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
	// RiskLevelError marks a document that could not be analyzed.
	RiskLevelError  RiskLevel = "ERROR"
)

func (l RiskLevel) String() string { return string(l) }

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelError:
		return true
	}
	return false
}

// RiskLevelForScore maps a clamped score to a level.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskLevelHigh
	case score >= 30:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// EvidenceKind names the type of an evidence byproduct.
type EvidenceKind string

const (
	EvidenceKindReportJSON      EvidenceKind = "report_json"
	EvidenceKindFindingsJSON    EvidenceKind = "findings_json"
	EvidenceKindMappingJSON     EvidenceKind = "mapping_json"
	EvidenceKindSummaryCSV      EvidenceKind = "summary_csv"
	EvidenceKindRecommendations EvidenceKind = "recommendations_txt"
	EvidenceKindManifestZIP     EvidenceKind = "manifest_zip"
	EvidenceKindReportPDF       EvidenceKind = "report_pdf"
	EvidenceKindAttachment      EvidenceKind = "attachment"
)

func (k EvidenceKind) String() string { return string(k) }

func (k EvidenceKind) IsValid() bool {
	switch k {
	case EvidenceKindReportJSON, EvidenceKindFindingsJSON, EvidenceKindMappingJSON,
		EvidenceKindSummaryCSV, EvidenceKindRecommendations, EvidenceKindManifestZIP,
		EvidenceKindReportPDF, EvidenceKindAttachment:
		return true
	}
	return false
}

// AuditEventType names an audited transition.
type AuditEventType string

const (
	AuditTenantCreate          AuditEventType = "tenant_create"
	AuditTenantDeactivate      AuditEventType = "tenant_deactivate"
	AuditUserCreate            AuditEventType = "user_create"
	AuditUserDisable           AuditEventType = "user_disable"
	AuditUserEnable            AuditEventType = "user_enable"
	AuditPasswordReset         AuditEventType = "password_reset"
	AuditRoleChange            AuditEventType = "role_change"
	AuditLoginSuccess          AuditEventType = "login_success"
	AuditLoginFailure          AuditEventType = "login_failure"
	AuditArtifactVersionCreate AuditEventType = "artifact_version_create"
	AuditArtifactVersionDedup  AuditEventType = "artifact_version_dedup"
	AuditInspectionSave        AuditEventType = "inspection_save"
	AuditEvidenceAttach        AuditEventType = "evidence_attach"
	AuditTextIndexSave         AuditEventType = "text_index_save"
	AuditExportManifest        AuditEventType = "export_manifest"
	AuditCompareRuns           AuditEventType = "compare_runs"
	AuditPermissionDenied      AuditEventType = "permission_denied"
	AuditSuperadminBootstrap   AuditEventType = "superadmin_bootstrap"
	AuditIntegrityMismatch     AuditEventType = "integrity_mismatch"
)

func (t AuditEventType) String() string { return string(t) }

func (t AuditEventType) IsValid() bool {
	switch t {
	case AuditTenantCreate, AuditTenantDeactivate, AuditUserCreate, AuditUserDisable,
		AuditUserEnable, AuditPasswordReset, AuditRoleChange, AuditLoginSuccess,
		AuditLoginFailure, AuditArtifactVersionCreate, AuditArtifactVersionDedup,
		AuditInspectionSave, AuditEvidenceAttach, AuditTextIndexSave, AuditExportManifest,
		AuditCompareRuns, AuditPermissionDenied, AuditSuperadminBootstrap, AuditIntegrityMismatch:
		return true
	}
	return false
}

// VerifyStatus is the outcome of re-hashing one stored object.
type VerifyStatus string

const (
	VerifyStatusOK       VerifyStatus = "OK"
	VerifyStatusMismatch VerifyStatus = "MISMATCH"
	VerifyStatusMissing  VerifyStatus = "MISSING"
)

func (s VerifyStatus) String() string { return string(s) }
