package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"regtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var reqLogger = flogging.MustGetLogger("regtrace.requirement")

const (
	requirementRegistry   = "RequirementTracking"
	requirementObjectType = "Requirement"
	assignmentObjectType  = "InstitutionRequirement"
)

// ValidFrequencies defines the permissible reporting cadences for a
// requirement template.
var ValidFrequencies = map[string]bool{
	"monthly":    true,
	"quarterly":  true,
	"semiannual": true,
	"annual":     true,
}

// RequirementContract defines reporting requirement templates and tracks
// their per-institution assignment and due dates.
type RequirementContract struct {
	contractapi.Contract
}

// Instantiate stamps the deploying principal as the registry admin.
func (c *RequirementContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	return NewAdminManager(ctx, requirementRegistry).Bootstrap()
}

func requirementKey(ctx contractapi.TransactionContextInterface, requirementID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(requirementObjectType, []string{requirementID})
}

func assignmentKey(ctx contractapi.TransactionContextInterface, institutionID, requirementID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(assignmentObjectType, []string{institutionID, requirementID})
}

func getRequirement(ctx contractapi.TransactionContextInterface, requirementID string) (*model.Requirement, error) {
	key, err := requirementKey(ctx, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for requirement '%s': %w", requirementID, err)
	}
	var requirement model.Requirement
	found, err := readRecord(ctx, key, &requirement)
	if err != nil || !found {
		return nil, err
	}
	return &requirement, nil
}

func getAssignment(ctx contractapi.TransactionContextInterface, institutionID, requirementID string) (*model.InstitutionRequirement, error) {
	key, err := assignmentKey(ctx, institutionID, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for assignment '%s'/'%s': %w", institutionID, requirementID, err)
	}
	var assignment model.InstitutionRequirement
	found, err := readRecord(ctx, key, &assignment)
	if err != nil || !found {
		return nil, err
	}
	return &assignment, nil
}

// AddRequirement stores a new requirement template. Admin only. Templates
// are immutable after creation.
func (c *RequirementContract) AddRequirement(ctx contractapi.TransactionContextInterface,
	requirementID, title, description, frequency string, deadlineDays int64) (string, error) {

	if err := NewAdminManager(ctx, requirementRegistry).RequireAdmin(); err != nil {
		return "", fmt.Errorf("AddRequirement: %w", err)
	}
	if err := validateRequiredString(requirementID, "requirementID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(title, "title", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateOptionalString(description, "description", maxNotesLength); err != nil {
		return "", err
	}
	frequencyLower := strings.ToLower(strings.TrimSpace(frequency))
	if !ValidFrequencies[frequencyLower] {
		return "", fmt.Errorf("invalid frequency '%s': %w", frequency, ErrInvalidArgument)
	}
	if deadlineDays <= 0 {
		return "", fmt.Errorf("deadlineDays must be positive, got %d: %w", deadlineDays, ErrInvalidArgument)
	}

	existing, err := getRequirement(ctx, requirementID)
	if err != nil {
		return "", fmt.Errorf("AddRequirement: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("requirement '%s': %w", requirementID, ErrAlreadyExists)
	}

	requirement := model.Requirement{
		ObjectType:   requirementObjectType,
		ID:           requirementID,
		Title:        title,
		Description:  description,
		Frequency:    frequencyLower,
		DeadlineDays: deadlineDays,
		Active:       true,
	}
	key, err := requirementKey(ctx, requirementID)
	if err != nil {
		return "", fmt.Errorf("AddRequirement: failed to create key for requirement '%s': %w", requirementID, err)
	}
	if err := putRecord(ctx, key, requirement); err != nil {
		return "", fmt.Errorf("AddRequirement: %w", err)
	}

	emitEvent(ctx, "RequirementAdded", map[string]interface{}{
		"requirementId": requirementID,
		"title":         title,
		"frequency":     frequencyLower,
		"deadlineDays":  deadlineDays,
	})
	reqLogger.Infof("Requirement '%s' (%s, %s) added.", requirementID, title, frequencyLower)
	return requirementID, nil
}

// AssignRequirement binds a requirement template to a verified institution
// with a concrete next due date. Admin only. Fails closed on every
// referential check before writing.
func (c *RequirementContract) AssignRequirement(ctx contractapi.TransactionContextInterface,
	institutionID, requirementID string, nextDueDate int64) (bool, error) {

	if err := NewAdminManager(ctx, requirementRegistry).RequireAdmin(); err != nil {
		return false, fmt.Errorf("AssignRequirement: %w", err)
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return false, err
	}
	if err := validateRequiredString(requirementID, "requirementID", maxStringInputLength); err != nil {
		return false, err
	}
	if nextDueDate <= 0 {
		return false, fmt.Errorf("nextDueDate must be positive, got %d: %w", nextDueDate, ErrInvalidArgument)
	}

	institution, err := getInstitution(ctx, institutionID)
	if err != nil {
		return false, fmt.Errorf("AssignRequirement: %w", err)
	}
	if institution == nil {
		return false, fmt.Errorf("institution '%s': %w", institutionID, ErrNotFound)
	}
	if !institution.Verified {
		return false, fmt.Errorf("institution '%s': %w", institutionID, ErrNotVerified)
	}
	requirement, err := getRequirement(ctx, requirementID)
	if err != nil {
		return false, fmt.Errorf("AssignRequirement: %w", err)
	}
	if requirement == nil {
		return false, fmt.Errorf("requirement '%s': %w", requirementID, ErrNotFound)
	}
	existing, err := getAssignment(ctx, institutionID, requirementID)
	if err != nil {
		return false, fmt.Errorf("AssignRequirement: %w", err)
	}
	if existing != nil {
		return false, fmt.Errorf("requirement '%s' for institution '%s': %w", requirementID, institutionID, ErrAlreadyAssigned)
	}

	now, err := txTimestamp(ctx)
	if err != nil {
		return false, fmt.Errorf("AssignRequirement: %w", err)
	}
	assignment := model.InstitutionRequirement{
		ObjectType:    assignmentObjectType,
		InstitutionID: institutionID,
		RequirementID: requirementID,
		AssignedDate:  now,
		NextDueDate:   nextDueDate,
		Active:        true,
	}
	key, err := assignmentKey(ctx, institutionID, requirementID)
	if err != nil {
		return false, fmt.Errorf("AssignRequirement: failed to create key for assignment '%s'/'%s': %w", institutionID, requirementID, err)
	}
	if err := putRecord(ctx, key, assignment); err != nil {
		return false, fmt.Errorf("AssignRequirement: %w", err)
	}

	emitEvent(ctx, "RequirementAssigned", map[string]interface{}{
		"institutionId": institutionID,
		"requirementId": requirementID,
		"nextDueDate":   nextDueDate,
	})
	reqLogger.Infof("Requirement '%s' assigned to institution '%s', due %d.", requirementID, institutionID, nextDueDate)
	return true, nil
}

// UpdateDueDate overwrites the next due date of an existing assignment in
// place. Admin only. No due-date history is kept.
func (c *RequirementContract) UpdateDueDate(ctx contractapi.TransactionContextInterface,
	institutionID, requirementID string, newDueDate int64) (bool, error) {

	if err := NewAdminManager(ctx, requirementRegistry).RequireAdmin(); err != nil {
		return false, fmt.Errorf("UpdateDueDate: %w", err)
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return false, err
	}
	if err := validateRequiredString(requirementID, "requirementID", maxStringInputLength); err != nil {
		return false, err
	}
	if newDueDate <= 0 {
		return false, fmt.Errorf("newDueDate must be positive, got %d: %w", newDueDate, ErrInvalidArgument)
	}

	assignment, err := getAssignment(ctx, institutionID, requirementID)
	if err != nil {
		return false, fmt.Errorf("UpdateDueDate: %w", err)
	}
	if assignment == nil {
		return false, fmt.Errorf("assignment of requirement '%s' to institution '%s': %w", requirementID, institutionID, ErrNotFound)
	}

	assignment.NextDueDate = newDueDate
	key, err := assignmentKey(ctx, institutionID, requirementID)
	if err != nil {
		return false, fmt.Errorf("UpdateDueDate: failed to create key for assignment '%s'/'%s': %w", institutionID, requirementID, err)
	}
	if err := putRecord(ctx, key, assignment); err != nil {
		return false, fmt.Errorf("UpdateDueDate: %w", err)
	}

	emitEvent(ctx, "DueDateUpdated", map[string]interface{}{
		"institutionId": institutionID,
		"requirementId": requirementID,
		"newDueDate":    newDueDate,
	})
	reqLogger.Infof("Due date for requirement '%s' of institution '%s' set to %d.", requirementID, institutionID, newDueDate)
	return true, nil
}

// GetRequirement returns the requirement template, or nil when unknown.
func (c *RequirementContract) GetRequirement(ctx contractapi.TransactionContextInterface, requirementID string) (*model.Requirement, error) {
	reqLogger.Debugf("GetRequirement: querying '%s'", requirementID)
	return getRequirement(ctx, requirementID)
}

// GetInstitutionRequirement returns the assignment record for the composite
// key, or nil when unknown.
func (c *RequirementContract) GetInstitutionRequirement(ctx contractapi.TransactionContextInterface,
	institutionID, requirementID string) (*model.InstitutionRequirement, error) {
	reqLogger.Debugf("GetInstitutionRequirement: querying '%s'/'%s'", institutionID, requirementID)
	return getAssignment(ctx, institutionID, requirementID)
}

// ListInstitutionRequirements returns every assignment recorded for an
// institution, in key order.
func (c *RequirementContract) ListInstitutionRequirements(ctx contractapi.TransactionContextInterface,
	institutionID string) ([]*model.InstitutionRequirement, error) {

	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return nil, err
	}
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(assignmentObjectType, []string{institutionID})
	if err != nil {
		return nil, fmt.Errorf("ListInstitutionRequirements: failed to get assignments iterator: %w", err)
	}
	defer resultsIterator.Close()

	assignments := []*model.InstitutionRequirement{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			reqLogger.Warningf("ListInstitutionRequirements: failed to get next assignment from iterator: %v. Skipping.", iterErr)
			continue
		}
		var assignment model.InstitutionRequirement
		if err := json.Unmarshal(queryResponse.Value, &assignment); err != nil {
			reqLogger.Warningf("ListInstitutionRequirements: failed to unmarshal assignment for key '%s': %v. Skipping.", queryResponse.Key, err)
			continue
		}
		assignments = append(assignments, &assignment)
	}
	reqLogger.Debugf("ListInstitutionRequirements: returning %d assignments for institution '%s'.", len(assignments), institutionID)
	return assignments, nil
}

// TransferAdmin replaces the registry admin. Admin only.
func (c *RequirementContract) TransferAdmin(ctx contractapi.TransactionContextInterface, newAdmin string) error {
	if err := NewAdminManager(ctx, requirementRegistry).Transfer(newAdmin); err != nil {
		return fmt.Errorf("TransferAdmin: %w", err)
	}
	emitEvent(ctx, "AdminTransferred", map[string]interface{}{
		"registry": requirementRegistry,
		"newAdmin": newAdmin,
	})
	return nil
}
