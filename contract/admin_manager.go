package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var adminLogger = flogging.MustGetLogger("regtrace.adminmanager")

// adminObjectType namespaces the per-registry admin records. Attribute for
// the composite key: registry name.
const adminObjectType = "RegistryAdmin"

// AdminManager owns the single admin identity of one registry. Each registry
// keeps its own admin record; transferring one registry's admin has no effect
// on the others.
type AdminManager struct {
	Ctx      contractapi.TransactionContextInterface
	Registry string
}

// NewAdminManager creates an AdminManager scoped to the named registry.
func NewAdminManager(ctx contractapi.TransactionContextInterface, registry string) *AdminManager {
	return &AdminManager{Ctx: ctx, Registry: registry}
}

func (am *AdminManager) adminKey() (string, error) {
	return am.Ctx.GetStub().CreateCompositeKey(adminObjectType, []string{am.Registry})
}

// CallerID returns the full client identity of the current transactor.
func (am *AdminManager) CallerID() (string, error) {
	clientIdentity := am.Ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	return id, nil
}

// CurrentAdmin returns the stored admin identity for this registry, or ""
// when no admin has been bootstrapped yet.
func (am *AdminManager) CurrentAdmin() (string, error) {
	key, err := am.adminKey()
	if err != nil {
		return "", fmt.Errorf("failed to create admin key for registry '%s': %w", am.Registry, err)
	}
	adminBytes, err := am.Ctx.GetStub().GetState(key)
	if err != nil {
		return "", fmt.Errorf("ledger error reading admin for registry '%s': %w", am.Registry, err)
	}
	return string(adminBytes), nil
}

// Bootstrap stamps the current caller as this registry's admin if none is
// set. Safe to call repeatedly; an existing admin is never replaced here.
func (am *AdminManager) Bootstrap() error {
	current, err := am.CurrentAdmin()
	if err != nil {
		return err
	}
	if current != "" {
		adminLogger.Debugf("Registry '%s' already has admin '%s'. Bootstrap is a no-op.", am.Registry, current)
		return nil
	}
	callerID, err := am.CallerID()
	if err != nil {
		return fmt.Errorf("bootstrap of registry '%s' failed: %w", am.Registry, err)
	}
	key, err := am.adminKey()
	if err != nil {
		return fmt.Errorf("failed to create admin key for registry '%s': %w", am.Registry, err)
	}
	if err := am.Ctx.GetStub().PutState(key, []byte(callerID)); err != nil {
		return fmt.Errorf("failed to save admin for registry '%s': %w", am.Registry, err)
	}
	adminLogger.Infof("Registry '%s' bootstrapped with admin '%s'.", am.Registry, callerID)
	return nil
}

// RequireAdmin fails with ErrUnauthorized unless the caller is this
// registry's stored admin.
func (am *AdminManager) RequireAdmin() error {
	callerID, err := am.CallerID()
	if err != nil {
		return fmt.Errorf("admin check for registry '%s' failed: %w", am.Registry, err)
	}
	current, err := am.CurrentAdmin()
	if err != nil {
		return err
	}
	if current == "" {
		return fmt.Errorf("registry '%s' has no admin bootstrapped: %w", am.Registry, ErrUnauthorized)
	}
	if callerID != current {
		return fmt.Errorf("caller '%s' is not the admin of registry '%s': %w", callerID, am.Registry, ErrUnauthorized)
	}
	return nil
}

// Transfer atomically replaces this registry's admin with newAdmin. Only the
// current admin may transfer.
func (am *AdminManager) Transfer(newAdmin string) error {
	if strings.TrimSpace(newAdmin) == "" {
		return fmt.Errorf("newAdmin cannot be empty: %w", ErrInvalidArgument)
	}
	if err := am.RequireAdmin(); err != nil {
		return err
	}
	key, err := am.adminKey()
	if err != nil {
		return fmt.Errorf("failed to create admin key for registry '%s': %w", am.Registry, err)
	}
	if err := am.Ctx.GetStub().PutState(key, []byte(newAdmin)); err != nil {
		return fmt.Errorf("failed to save new admin for registry '%s': %w", am.Registry, err)
	}
	adminLogger.Infof("Registry '%s' admin transferred to '%s'.", am.Registry, newAdmin)
	return nil
}
