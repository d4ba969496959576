package contract

import (
	"fmt"
	"strings"

	"regtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var subLogger = flogging.MustGetLogger("regtrace.submission")

const (
	submissionRegistry       = "DataCollection"
	submissionObjectType     = "Submission"
	submissionMetaObjectType = "SubmissionMeta"
)

// submissionTransitions is the allowed-predecessor table for submission
// status changes. A target status not present here, or a current status not
// in its predecessor set, is an invalid transition.
var submissionTransitions = map[model.SubmissionStatus]map[model.SubmissionStatus]bool{
	model.SubmissionApproved: {model.SubmissionPending: true},
	model.SubmissionRejected: {model.SubmissionPending: true},
}

// SubmissionContract records raw data submissions against an assigned
// institution/requirement pair and tracks their review status. Submitting is
// open to any authenticated principal; review is admin only.
type SubmissionContract struct {
	contractapi.Contract
}

// Instantiate stamps the deploying principal as the registry admin.
func (c *SubmissionContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	return NewAdminManager(ctx, submissionRegistry).Bootstrap()
}

func submissionKey(ctx contractapi.TransactionContextInterface, submissionID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(submissionObjectType, []string{submissionID})
}

func submissionMetaKey(ctx contractapi.TransactionContextInterface, submissionID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(submissionMetaObjectType, []string{submissionID})
}

func getSubmission(ctx contractapi.TransactionContextInterface, submissionID string) (*model.Submission, error) {
	key, err := submissionKey(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for submission '%s': %w", submissionID, err)
	}
	var submission model.Submission
	found, err := readRecord(ctx, key, &submission)
	if err != nil || !found {
		return nil, err
	}
	return &submission, nil
}

func getSubmissionMeta(ctx contractapi.TransactionContextInterface, submissionID string) (*model.SubmissionMetadata, error) {
	key, err := submissionMetaKey(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create meta key for submission '%s': %w", submissionID, err)
	}
	var meta model.SubmissionMetadata
	found, err := readRecord(ctx, key, &meta)
	if err != nil || !found {
		return nil, err
	}
	return &meta, nil
}

// SubmitData records a data submission for an assigned institution and
// requirement. The caller is recorded as the submitter; the record starts
// pending. dataHash is hex-encoded and must decode to exactly 32 bytes.
func (c *SubmissionContract) SubmitData(ctx contractapi.TransactionContextInterface,
	submissionID, institutionID, requirementID, dataHash, dataLocation, dataFormat, notes string) (string, error) {

	if err := validateRequiredString(submissionID, "submissionID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(requirementID, "requirementID", maxStringInputLength); err != nil {
		return "", err
	}
	digest, err := decodeHash(dataHash, "dataHash", dataHashLength)
	if err != nil {
		return "", err
	}
	if err := validateRequiredString(dataLocation, "dataLocation", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(dataFormat, "dataFormat", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateOptionalString(notes, "notes", maxNotesLength); err != nil {
		return "", err
	}

	institution, err := getInstitution(ctx, institutionID)
	if err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}
	if institution == nil {
		return "", fmt.Errorf("institution '%s': %w", institutionID, ErrNotFound)
	}
	assignment, err := getAssignment(ctx, institutionID, requirementID)
	if err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}
	if assignment == nil {
		return "", fmt.Errorf("assignment of requirement '%s' to institution '%s': %w", requirementID, institutionID, ErrNotFound)
	}
	existing, err := getSubmission(ctx, submissionID)
	if err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("submission '%s': %w", submissionID, ErrAlreadyExists)
	}

	submitter, err := NewAdminManager(ctx, submissionRegistry).CallerID()
	if err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}
	now, err := txTimestamp(ctx)
	if err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}

	submission := model.Submission{
		ObjectType:     submissionObjectType,
		ID:             submissionID,
		InstitutionID:  institutionID,
		RequirementID:  requirementID,
		DataHash:       digest,
		SubmissionDate: now,
		Status:         model.SubmissionPending,
	}
	meta := model.SubmissionMetadata{
		ObjectType:   submissionMetaObjectType,
		SubmissionID: submissionID,
		DataLocation: dataLocation,
		DataFormat:   dataFormat,
		Submitter:    submitter,
		Notes:        notes,
	}

	key, err := submissionKey(ctx, submissionID)
	if err != nil {
		return "", fmt.Errorf("SubmitData: failed to create key for submission '%s': %w", submissionID, err)
	}
	metaKey, err := submissionMetaKey(ctx, submissionID)
	if err != nil {
		return "", fmt.Errorf("SubmitData: failed to create meta key for submission '%s': %w", submissionID, err)
	}
	if err := putRecord(ctx, key, submission); err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}
	if err := putRecord(ctx, metaKey, meta); err != nil {
		return "", fmt.Errorf("SubmitData: %w", err)
	}

	emitEvent(ctx, "DataSubmitted", map[string]interface{}{
		"submissionId":  submissionID,
		"institutionId": institutionID,
		"requirementId": requirementID,
		"submitter":     submitter,
	})
	subLogger.Infof("Submission '%s' recorded for institution '%s', requirement '%s' by '%s'.", submissionID, institutionID, requirementID, submitter)
	return submissionID, nil
}

// ValidateSubmission moves a pending submission to approved or rejected,
// exactly once. Admin only.
func (c *SubmissionContract) ValidateSubmission(ctx contractapi.TransactionContextInterface,
	submissionID, status string) (bool, error) {

	if err := NewAdminManager(ctx, submissionRegistry).RequireAdmin(); err != nil {
		return false, fmt.Errorf("ValidateSubmission: %w", err)
	}
	if err := validateRequiredString(submissionID, "submissionID", maxStringInputLength); err != nil {
		return false, err
	}

	target := model.SubmissionStatus(strings.ToLower(strings.TrimSpace(status)))
	predecessors, known := submissionTransitions[target]
	if !known {
		return false, fmt.Errorf("'%s' is not a valid review status: %w", status, ErrInvalidTransition)
	}

	submission, err := getSubmission(ctx, submissionID)
	if err != nil {
		return false, fmt.Errorf("ValidateSubmission: %w", err)
	}
	if submission == nil {
		return false, fmt.Errorf("submission '%s': %w", submissionID, ErrNotFound)
	}
	if !predecessors[submission.Status] {
		return false, fmt.Errorf("submission '%s' is '%s', cannot become '%s': %w", submissionID, submission.Status, target, ErrInvalidTransition)
	}

	submission.Status = target
	key, err := submissionKey(ctx, submissionID)
	if err != nil {
		return false, fmt.Errorf("ValidateSubmission: failed to create key for submission '%s': %w", submissionID, err)
	}
	if err := putRecord(ctx, key, submission); err != nil {
		return false, fmt.Errorf("ValidateSubmission: %w", err)
	}

	emitEvent(ctx, "SubmissionValidated", map[string]interface{}{
		"submissionId": submissionID,
		"status":       string(target),
	})
	subLogger.Infof("Submission '%s' reviewed as '%s'.", submissionID, target)
	return true, nil
}

// GetSubmission returns the submission core record, or nil when unknown.
func (c *SubmissionContract) GetSubmission(ctx contractapi.TransactionContextInterface, submissionID string) (*model.Submission, error) {
	subLogger.Debugf("GetSubmission: querying '%s'", submissionID)
	return getSubmission(ctx, submissionID)
}

// GetSubmissionMetadata returns the descriptive sub-record, or nil when
// unknown.
func (c *SubmissionContract) GetSubmissionMetadata(ctx contractapi.TransactionContextInterface, submissionID string) (*model.SubmissionMetadata, error) {
	subLogger.Debugf("GetSubmissionMetadata: querying '%s'", submissionID)
	return getSubmissionMeta(ctx, submissionID)
}

// TransferAdmin replaces the registry admin. Admin only.
func (c *SubmissionContract) TransferAdmin(ctx contractapi.TransactionContextInterface, newAdmin string) error {
	if err := NewAdminManager(ctx, submissionRegistry).Transfer(newAdmin); err != nil {
		return fmt.Errorf("TransferAdmin: %w", err)
	}
	emitEvent(ctx, "AdminTransferred", map[string]interface{}{
		"registry": submissionRegistry,
		"newAdmin": newAdmin,
	})
	return nil
}
