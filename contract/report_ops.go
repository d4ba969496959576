package contract

import (
	"fmt"

	"regtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var repLogger = flogging.MustGetLogger("regtrace.report")

const (
	reportRegistry       = "ReportGeneration"
	reportObjectType     = "Report"
	reportMetaObjectType = "ReportMeta"
)

// reportTransitions is the allowed-predecessor table for report status
// changes.
var reportTransitions = map[model.ReportStatus]map[model.ReportStatus]bool{
	model.ReportFinalized: {model.ReportGenerated: true},
}

// ReportContract aggregates reviewed submissions into report artifacts.
// Generating is open to any authenticated principal; finalizing is admin
// only.
type ReportContract struct {
	contractapi.Contract
}

// Instantiate stamps the deploying principal as the registry admin.
func (c *ReportContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	return NewAdminManager(ctx, reportRegistry).Bootstrap()
}

func reportKey(ctx contractapi.TransactionContextInterface, reportID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(reportObjectType, []string{reportID})
}

func reportMetaKey(ctx contractapi.TransactionContextInterface, reportID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(reportMetaObjectType, []string{reportID})
}

func getReport(ctx contractapi.TransactionContextInterface, reportID string) (*model.Report, error) {
	key, err := reportKey(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for report '%s': %w", reportID, err)
	}
	var report model.Report
	found, err := readRecord(ctx, key, &report)
	if err != nil || !found {
		return nil, err
	}
	return &report, nil
}

func getReportMeta(ctx contractapi.TransactionContextInterface, reportID string) (*model.ReportMetadata, error) {
	key, err := reportMetaKey(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to create meta key for report '%s': %w", reportID, err)
	}
	var meta model.ReportMetadata
	found, err := readRecord(ctx, key, &meta)
	if err != nil || !found {
		return nil, err
	}
	return &meta, nil
}

// GenerateReport assembles one or more existing submissions into a report.
// Every submission must exist and belong to the report's institution and
// requirement; any violation fails the call before anything is written. The
// caller is recorded as the generator.
func (c *ReportContract) GenerateReport(ctx contractapi.TransactionContextInterface,
	reportID, institutionID, requirementID string, submissionIDs []string,
	reportHash, reportLocation, reportFormat, notes string) (string, error) {

	if err := validateRequiredString(reportID, "reportID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(requirementID, "requirementID", maxStringInputLength); err != nil {
		return "", err
	}
	if len(submissionIDs) == 0 {
		return "", fmt.Errorf("submissionIDs cannot be empty: %w", ErrInvalidArgument)
	}
	if len(submissionIDs) > maxSubmissionsPerReport {
		return "", fmt.Errorf("submissionIDs has %d items, exceeding maximum of %d: %w", len(submissionIDs), maxSubmissionsPerReport, ErrInvalidArgument)
	}
	digest, err := decodeHash(reportHash, "reportHash", 0)
	if err != nil {
		return "", err
	}
	if err := validateRequiredString(reportLocation, "reportLocation", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(reportFormat, "reportFormat", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateOptionalString(notes, "notes", maxNotesLength); err != nil {
		return "", err
	}

	institution, err := getInstitution(ctx, institutionID)
	if err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}
	if institution == nil {
		return "", fmt.Errorf("institution '%s': %w", institutionID, ErrNotFound)
	}
	requirement, err := getRequirement(ctx, requirementID)
	if err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}
	if requirement == nil {
		return "", fmt.Errorf("requirement '%s': %w", requirementID, ErrNotFound)
	}
	for _, submissionID := range submissionIDs {
		submission, err := getSubmission(ctx, submissionID)
		if err != nil {
			return "", fmt.Errorf("GenerateReport: %w", err)
		}
		if submission == nil {
			return "", fmt.Errorf("submission '%s': %w", submissionID, ErrNotFound)
		}
		if submission.InstitutionID != institutionID || submission.RequirementID != requirementID {
			return "", fmt.Errorf("submission '%s' belongs to institution '%s', requirement '%s', not '%s'/'%s': %w",
				submissionID, submission.InstitutionID, submission.RequirementID, institutionID, requirementID, ErrInvalidArgument)
		}
	}
	existing, err := getReport(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("report '%s': %w", reportID, ErrAlreadyExists)
	}

	generator, err := NewAdminManager(ctx, reportRegistry).CallerID()
	if err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}
	now, err := txTimestamp(ctx)
	if err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}

	report := model.Report{
		ObjectType:     reportObjectType,
		ID:             reportID,
		InstitutionID:  institutionID,
		RequirementID:  requirementID,
		SubmissionIDs:  submissionIDs,
		ReportHash:     digest,
		GenerationDate: now,
		Status:         model.ReportGenerated,
	}
	meta := model.ReportMetadata{
		ObjectType:     reportMetaObjectType,
		ReportID:       reportID,
		ReportLocation: reportLocation,
		ReportFormat:   reportFormat,
		Generator:      generator,
		Notes:          notes,
	}

	key, err := reportKey(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("GenerateReport: failed to create key for report '%s': %w", reportID, err)
	}
	metaKey, err := reportMetaKey(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("GenerateReport: failed to create meta key for report '%s': %w", reportID, err)
	}
	if err := putRecord(ctx, key, report); err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}
	if err := putRecord(ctx, metaKey, meta); err != nil {
		return "", fmt.Errorf("GenerateReport: %w", err)
	}

	emitEvent(ctx, "ReportGenerated", map[string]interface{}{
		"reportId":      reportID,
		"institutionId": institutionID,
		"requirementId": requirementID,
		"submissionIds": submissionIDs,
		"generator":     generator,
	})
	repLogger.Infof("Report '%s' generated over %d submissions for institution '%s' by '%s'.", reportID, len(submissionIDs), institutionID, generator)
	return reportID, nil
}

// FinalizeReport moves a generated report to finalized, exactly once. Admin
// only.
func (c *ReportContract) FinalizeReport(ctx contractapi.TransactionContextInterface, reportID string) (bool, error) {
	if err := NewAdminManager(ctx, reportRegistry).RequireAdmin(); err != nil {
		return false, fmt.Errorf("FinalizeReport: %w", err)
	}
	if err := validateRequiredString(reportID, "reportID", maxStringInputLength); err != nil {
		return false, err
	}

	report, err := getReport(ctx, reportID)
	if err != nil {
		return false, fmt.Errorf("FinalizeReport: %w", err)
	}
	if report == nil {
		return false, fmt.Errorf("report '%s': %w", reportID, ErrNotFound)
	}
	if !reportTransitions[model.ReportFinalized][report.Status] {
		return false, fmt.Errorf("report '%s' is '%s', cannot become '%s': %w", reportID, report.Status, model.ReportFinalized, ErrInvalidTransition)
	}

	report.Status = model.ReportFinalized
	key, err := reportKey(ctx, reportID)
	if err != nil {
		return false, fmt.Errorf("FinalizeReport: failed to create key for report '%s': %w", reportID, err)
	}
	if err := putRecord(ctx, key, report); err != nil {
		return false, fmt.Errorf("FinalizeReport: %w", err)
	}

	emitEvent(ctx, "ReportFinalized", map[string]interface{}{
		"reportId": reportID,
	})
	repLogger.Infof("Report '%s' finalized.", reportID)
	return true, nil
}

// GetReport returns the report core record, or nil when unknown.
func (c *ReportContract) GetReport(ctx contractapi.TransactionContextInterface, reportID string) (*model.Report, error) {
	repLogger.Debugf("GetReport: querying '%s'", reportID)
	return getReport(ctx, reportID)
}

// GetReportMetadata returns the descriptive sub-record, or nil when unknown.
func (c *ReportContract) GetReportMetadata(ctx contractapi.TransactionContextInterface, reportID string) (*model.ReportMetadata, error) {
	repLogger.Debugf("GetReportMetadata: querying '%s'", reportID)
	return getReportMeta(ctx, reportID)
}

// TransferAdmin replaces the registry admin. Admin only.
func (c *ReportContract) TransferAdmin(ctx contractapi.TransactionContextInterface, newAdmin string) error {
	if err := NewAdminManager(ctx, reportRegistry).Transfer(newAdmin); err != nil {
		return fmt.Errorf("TransferAdmin: %w", err)
	}
	emitEvent(ctx, "AdminTransferred", map[string]interface{}{
		"registry": reportRegistry,
		"newAdmin": newAdmin,
	})
	return nil
}
