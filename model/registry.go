package model

// SubmissionStatus defines the review states of a data submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"  // Recorded, awaiting review
	SubmissionApproved SubmissionStatus = "approved" // Accepted by the registry admin
	SubmissionRejected SubmissionStatus = "rejected" // Declined by the registry admin
)

// ReportStatus defines the lifecycle states of a report artifact.
type ReportStatus string

const (
	ReportGenerated ReportStatus = "generated"
	ReportFinalized ReportStatus = "finalized"
)

// Institution is a regulated entity onboarded into the registry.
// Verification flips exactly once; institutions are never deleted.
type Institution struct {
	ObjectType       string `json:"objectType"` // "Institution"
	ID               string `json:"id"`
	Name             string `json:"name"`
	Address          string `json:"address"`
	LicenseNumber    string `json:"licenseNumber"`
	Verified         bool   `json:"verified"`
	VerificationDate int64  `json:"verificationDate"` // Zero until verified
}

// Requirement is a reporting obligation template. Immutable after creation.
type Requirement struct {
	ObjectType   string `json:"objectType"` // "Requirement"
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Frequency    string `json:"frequency"` // e.g. "quarterly", "annual"
	DeadlineDays int64  `json:"deadlineDays"`
	Active       bool   `json:"active"`
}

// InstitutionRequirement binds a requirement to an institution. Keyed by the
// (institutionId, requirementId) composite; NextDueDate is the only field
// updated after creation.
type InstitutionRequirement struct {
	ObjectType    string `json:"objectType"` // "InstitutionRequirement"
	InstitutionID string `json:"institutionId"`
	RequirementID string `json:"requirementId"`
	AssignedDate  int64  `json:"assignedDate"`
	NextDueDate   int64  `json:"nextDueDate"`
	Active        bool   `json:"active"`
}

// Submission is the hot validation record of a data submission. Descriptive
// fields live in SubmissionMetadata under the same id.
type Submission struct {
	ObjectType     string           `json:"objectType"` // "Submission"
	ID             string           `json:"id"`
	InstitutionID  string           `json:"institutionId"`
	RequirementID  string           `json:"requirementId"`
	DataHash       []byte           `json:"dataHash"` // 32-byte content digest
	SubmissionDate int64            `json:"submissionDate"`
	Status         SubmissionStatus `json:"status"`
}

// SubmissionMetadata holds the rarely-read descriptive fields of a
// submission. Immutable once written.
type SubmissionMetadata struct {
	ObjectType   string `json:"objectType"` // "SubmissionMeta"
	SubmissionID string `json:"submissionId"`
	DataLocation string `json:"dataLocation"` // Opaque URI, e.g. ipfs://...
	DataFormat   string `json:"dataFormat"`
	Submitter    string `json:"submitter"` // Full client identity of the caller
	Notes        string `json:"notes"`
}

// Report aggregates one or more submissions into a single artifact.
type Report struct {
	ObjectType     string       `json:"objectType"` // "Report"
	ID             string       `json:"id"`
	InstitutionID  string       `json:"institutionId"`
	RequirementID  string       `json:"requirementId"`
	SubmissionIDs  []string     `json:"submissionIds"`
	ReportHash     []byte       `json:"reportHash"`
	GenerationDate int64        `json:"generationDate"`
	Status         ReportStatus `json:"status"`
}

// ReportMetadata holds the descriptive fields of a report. Immutable once
// written.
type ReportMetadata struct {
	ObjectType     string `json:"objectType"` // "ReportMeta"
	ReportID       string `json:"reportId"`
	ReportLocation string `json:"reportLocation"`
	ReportFormat   string `json:"reportFormat"`
	Generator      string `json:"generator"`
	Notes          string `json:"notes"`
}

// Verification is an immutable timeliness determination for a report.
// IsTimely is fixed from the two dates supplied at creation and never
// recomputed.
type Verification struct {
	ObjectType       string `json:"objectType"` // "Verification"
	ID               string `json:"id"`
	InstitutionID    string `json:"institutionId"`
	RequirementID    string `json:"requirementId"`
	ReportID         string `json:"reportId"`
	SubmissionDate   int64  `json:"submissionDate"`
	DueDate          int64  `json:"dueDate"`
	IsTimely         bool   `json:"isTimely"`
	VerificationDate int64  `json:"verificationDate"`
}
