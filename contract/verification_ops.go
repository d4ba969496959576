package contract

import (
	"fmt"

	"regtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var verLogger = flogging.MustGetLogger("regtrace.verification")

const (
	verificationRegistry   = "SubmissionVerification"
	verificationObjectType = "Verification"
)

// VerificationContract certifies whether a report was produced by its due
// date. Verification records are write-once: the timeliness determination is
// fixed from the dates supplied at creation and never recomputed.
type VerificationContract struct {
	contractapi.Contract
}

// Instantiate stamps the deploying principal as the registry admin.
func (c *VerificationContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	return NewAdminManager(ctx, verificationRegistry).Bootstrap()
}

func verificationKey(ctx contractapi.TransactionContextInterface, verificationID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(verificationObjectType, []string{verificationID})
}

func getVerification(ctx contractapi.TransactionContextInterface, verificationID string) (*model.Verification, error) {
	key, err := verificationKey(ctx, verificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for verification '%s': %w", verificationID, err)
	}
	var verification model.Verification
	found, err := readRecord(ctx, key, &verification)
	if err != nil || !found {
		return nil, err
	}
	return &verification, nil
}

// VerifySubmission records a timeliness determination for a report. Admin
// only. isTimely is submissionDate <= dueDate, computed here and stored
// immutably.
func (c *VerificationContract) VerifySubmission(ctx contractapi.TransactionContextInterface,
	verificationID, institutionID, requirementID, reportID string,
	submissionDate, dueDate int64) (string, error) {

	if err := NewAdminManager(ctx, verificationRegistry).RequireAdmin(); err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}
	if err := validateRequiredString(verificationID, "verificationID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(requirementID, "requirementID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(reportID, "reportID", maxStringInputLength); err != nil {
		return "", err
	}

	report, err := getReport(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}
	if report == nil {
		return "", fmt.Errorf("report '%s': %w", reportID, ErrNotFound)
	}
	institution, err := getInstitution(ctx, institutionID)
	if err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}
	if institution == nil {
		return "", fmt.Errorf("institution '%s': %w", institutionID, ErrNotFound)
	}
	requirement, err := getRequirement(ctx, requirementID)
	if err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}
	if requirement == nil {
		return "", fmt.Errorf("requirement '%s': %w", requirementID, ErrNotFound)
	}
	existing, err := getVerification(ctx, verificationID)
	if err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("verification '%s': %w", verificationID, ErrAlreadyExists)
	}

	now, err := txTimestamp(ctx)
	if err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}
	verification := model.Verification{
		ObjectType:       verificationObjectType,
		ID:               verificationID,
		InstitutionID:    institutionID,
		RequirementID:    requirementID,
		ReportID:         reportID,
		SubmissionDate:   submissionDate,
		DueDate:          dueDate,
		IsTimely:         submissionDate <= dueDate,
		VerificationDate: now,
	}

	key, err := verificationKey(ctx, verificationID)
	if err != nil {
		return "", fmt.Errorf("VerifySubmission: failed to create key for verification '%s': %w", verificationID, err)
	}
	if err := putRecord(ctx, key, verification); err != nil {
		return "", fmt.Errorf("VerifySubmission: %w", err)
	}

	emitEvent(ctx, "SubmissionVerified", map[string]interface{}{
		"verificationId": verificationID,
		"reportId":       reportID,
		"isTimely":       verification.IsTimely,
	})
	verLogger.Infof("Verification '%s' recorded for report '%s': timely=%v.", verificationID, reportID, verification.IsTimely)
	return verificationID, nil
}

// GetVerification returns the verification record, or nil when unknown.
func (c *VerificationContract) GetVerification(ctx contractapi.TransactionContextInterface, verificationID string) (*model.Verification, error) {
	verLogger.Debugf("GetVerification: querying '%s'", verificationID)
	return getVerification(ctx, verificationID)
}

// IsSubmissionTimely returns the stored timeliness determination. Unknown
// ids fail with ErrNotFound.
func (c *VerificationContract) IsSubmissionTimely(ctx contractapi.TransactionContextInterface, verificationID string) (bool, error) {
	verification, err := getVerification(ctx, verificationID)
	if err != nil {
		return false, fmt.Errorf("IsSubmissionTimely: %w", err)
	}
	if verification == nil {
		return false, fmt.Errorf("verification '%s': %w", verificationID, ErrNotFound)
	}
	return verification.IsTimely, nil
}

// TransferAdmin replaces the registry admin. Admin only.
func (c *VerificationContract) TransferAdmin(ctx contractapi.TransactionContextInterface, newAdmin string) error {
	if err := NewAdminManager(ctx, verificationRegistry).Transfer(newAdmin); err != nil {
		return fmt.Errorf("TransferAdmin: %w", err)
	}
	emitEvent(ctx, "AdminTransferred", map[string]interface{}{
		"registry": verificationRegistry,
		"newAdmin": newAdmin,
	})
	return nil
}
