package contract

import (
	"fmt"

	"regtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var instLogger = flogging.MustGetLogger("regtrace.institution")

const (
	institutionRegistry   = "InstitutionVerification"
	institutionObjectType = "Institution"
)

// InstitutionContract onboards and verifies regulated institutions. Leaf
// registry: every other registry checks institution validity against it.
type InstitutionContract struct {
	contractapi.Contract
}

// Instantiate stamps the deploying principal as the registry admin.
func (c *InstitutionContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	return NewAdminManager(ctx, institutionRegistry).Bootstrap()
}

func institutionKey(ctx contractapi.TransactionContextInterface, institutionID string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(institutionObjectType, []string{institutionID})
}

// getInstitution is the package-internal lookup other registries use for
// referential checks. Returns nil without error when the id is unknown.
func getInstitution(ctx contractapi.TransactionContextInterface, institutionID string) (*model.Institution, error) {
	key, err := institutionKey(ctx, institutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for institution '%s': %w", institutionID, err)
	}
	var institution model.Institution
	found, err := readRecord(ctx, key, &institution)
	if err != nil || !found {
		return nil, err
	}
	return &institution, nil
}

// RegisterInstitution stores a new, unverified institution. Admin only.
func (c *InstitutionContract) RegisterInstitution(ctx contractapi.TransactionContextInterface,
	institutionID, name, address, licenseNumber string) (string, error) {

	if err := NewAdminManager(ctx, institutionRegistry).RequireAdmin(); err != nil {
		return "", fmt.Errorf("RegisterInstitution: %w", err)
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(name, "name", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(address, "address", maxStringInputLength); err != nil {
		return "", err
	}
	if err := validateRequiredString(licenseNumber, "licenseNumber", maxStringInputLength); err != nil {
		return "", err
	}

	existing, err := getInstitution(ctx, institutionID)
	if err != nil {
		return "", fmt.Errorf("RegisterInstitution: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("institution '%s': %w", institutionID, ErrAlreadyExists)
	}

	institution := model.Institution{
		ObjectType:    institutionObjectType,
		ID:            institutionID,
		Name:          name,
		Address:       address,
		LicenseNumber: licenseNumber,
		Verified:      false,
	}
	key, err := institutionKey(ctx, institutionID)
	if err != nil {
		return "", fmt.Errorf("RegisterInstitution: failed to create key for institution '%s': %w", institutionID, err)
	}
	if err := putRecord(ctx, key, institution); err != nil {
		return "", fmt.Errorf("RegisterInstitution: %w", err)
	}

	emitEvent(ctx, "InstitutionRegistered", map[string]interface{}{
		"institutionId": institutionID,
		"name":          name,
		"licenseNumber": licenseNumber,
	})
	instLogger.Infof("Institution '%s' (%s) registered.", institutionID, name)
	return institutionID, nil
}

// VerifyInstitution flips the verified flag exactly once and stamps the
// verification date. Re-verifying a verified institution is a hard failure.
func (c *InstitutionContract) VerifyInstitution(ctx contractapi.TransactionContextInterface, institutionID string) (bool, error) {
	if err := NewAdminManager(ctx, institutionRegistry).RequireAdmin(); err != nil {
		return false, fmt.Errorf("VerifyInstitution: %w", err)
	}
	if err := validateRequiredString(institutionID, "institutionID", maxStringInputLength); err != nil {
		return false, err
	}

	institution, err := getInstitution(ctx, institutionID)
	if err != nil {
		return false, fmt.Errorf("VerifyInstitution: %w", err)
	}
	if institution == nil {
		return false, fmt.Errorf("institution '%s': %w", institutionID, ErrNotFound)
	}
	if institution.Verified {
		return false, fmt.Errorf("institution '%s': %w", institutionID, ErrAlreadyVerified)
	}

	now, err := txTimestamp(ctx)
	if err != nil {
		return false, fmt.Errorf("VerifyInstitution: %w", err)
	}
	institution.Verified = true
	institution.VerificationDate = now

	key, err := institutionKey(ctx, institutionID)
	if err != nil {
		return false, fmt.Errorf("VerifyInstitution: failed to create key for institution '%s': %w", institutionID, err)
	}
	if err := putRecord(ctx, key, institution); err != nil {
		return false, fmt.Errorf("VerifyInstitution: %w", err)
	}

	emitEvent(ctx, "InstitutionVerified", map[string]interface{}{
		"institutionId":    institutionID,
		"verificationDate": now,
	})
	instLogger.Infof("Institution '%s' verified at %d.", institutionID, now)
	return true, nil
}

// IsInstitutionVerified reports the verified flag. Unknown ids fail with
// ErrNotFound rather than reading as false; callers depend on the
// distinction.
func (c *InstitutionContract) IsInstitutionVerified(ctx contractapi.TransactionContextInterface, institutionID string) (bool, error) {
	institution, err := getInstitution(ctx, institutionID)
	if err != nil {
		return false, fmt.Errorf("IsInstitutionVerified: %w", err)
	}
	if institution == nil {
		return false, fmt.Errorf("institution '%s': %w", institutionID, ErrNotFound)
	}
	return institution.Verified, nil
}

// GetInstitution returns the institution record, or nil when the id is
// unknown. Lookup miss is not an error.
func (c *InstitutionContract) GetInstitution(ctx contractapi.TransactionContextInterface, institutionID string) (*model.Institution, error) {
	instLogger.Debugf("GetInstitution: querying '%s'", institutionID)
	return getInstitution(ctx, institutionID)
}

// TransferAdmin replaces the registry admin. Admin only.
func (c *InstitutionContract) TransferAdmin(ctx contractapi.TransactionContextInterface, newAdmin string) error {
	if err := NewAdminManager(ctx, institutionRegistry).Transfer(newAdmin); err != nil {
		return fmt.Errorf("TransferAdmin: %w", err)
	}
	emitEvent(ctx, "AdminTransferred", map[string]interface{}{
		"registry": institutionRegistry,
		"newAdmin": newAdmin,
	})
	return nil
}
