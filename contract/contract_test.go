package contract

import (
	"strings"

	"regtrace/mocks"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/suite"
)

// Test principals. Full IDs follow the x509 shape the peer hands chaincode.
const (
	adminID    = "x509::CN=registry-admin,OU=admin::CN=ca.org1.example.com"
	newAdminID = "x509::CN=registry-admin-2,OU=admin::CN=ca.org1.example.com"
	reporterID = "x509::CN=example-bank-reporter,OU=client::CN=ca.org1.example.com"
)

// validDataHash is a hex-encoded 32-byte digest.
var validDataHash = strings.Repeat("ab", 32)

// registryFixture wires all five contracts over one shared world state, with
// their admins bootstrapped to adminID.
type registryFixture struct {
	suite.Suite
	stub          *mocks.Stub
	institutions  *InstitutionContract
	requirements  *RequirementContract
	submissions   *SubmissionContract
	reports       *ReportContract
	verifications *VerificationContract
}

func (f *registryFixture) SetupTest() {
	f.stub = mocks.NewStub()
	f.institutions = new(InstitutionContract)
	f.requirements = new(RequirementContract)
	f.submissions = new(SubmissionContract)
	f.reports = new(ReportContract)
	f.verifications = new(VerificationContract)

	admin := f.adminCtx()
	f.Require().NoError(f.institutions.Instantiate(admin))
	f.Require().NoError(f.requirements.Instantiate(admin))
	f.Require().NoError(f.submissions.Instantiate(admin))
	f.Require().NoError(f.reports.Instantiate(admin))
	f.Require().NoError(f.verifications.Instantiate(admin))
}

// ctxFor builds a transaction context for the given principal over the
// shared stub.
func (f *registryFixture) ctxFor(identity string) *contractapi.TransactionContext {
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(f.stub)
	ctx.SetClientIdentity(mocks.NewClientIdentity(identity, "Org1MSP"))
	return ctx
}

func (f *registryFixture) adminCtx() *contractapi.TransactionContext {
	return f.ctxFor(adminID)
}

// --- Seed helpers: build the cross-registry graph tests depend on ---

func (f *registryFixture) seedVerifiedInstitution(institutionID string) {
	admin := f.adminCtx()
	_, err := f.institutions.RegisterInstitution(admin, institutionID, "Example Bank", "123 Finance St", "LIC-12345")
	f.Require().NoError(err)
	_, err = f.institutions.VerifyInstitution(admin, institutionID)
	f.Require().NoError(err)
}

func (f *registryFixture) seedRequirement(requirementID string) {
	_, err := f.requirements.AddRequirement(f.adminCtx(), requirementID, "Quarterly Financial Report", "Q1 financial position", "quarterly", 30)
	f.Require().NoError(err)
}

func (f *registryFixture) seedAssignment(institutionID, requirementID string, nextDueDate int64) {
	_, err := f.requirements.AssignRequirement(f.adminCtx(), institutionID, requirementID, nextDueDate)
	f.Require().NoError(err)
}

func (f *registryFixture) seedSubmission(submissionID, institutionID, requirementID string) {
	_, err := f.submissions.SubmitData(f.ctxFor(reporterID), submissionID, institutionID, requirementID,
		validDataHash, "ipfs://QmXyZ123", "json", "Q1 financial data")
	f.Require().NoError(err)
}

func (f *registryFixture) seedReport(reportID, institutionID, requirementID string, submissionIDs []string) {
	_, err := f.reports.GenerateReport(f.ctxFor(reporterID), reportID, institutionID, requirementID, submissionIDs,
		validDataHash, "ipfs://QmReport456", "pdf", "Q1 report")
	f.Require().NoError(err)
}

// seedReportingChain builds institution + requirement + assignment +
// submission + report in one step for the later-stage suites.
func (f *registryFixture) seedReportingChain(institutionID, requirementID, submissionID, reportID string) {
	f.seedVerifiedInstitution(institutionID)
	f.seedRequirement(requirementID)
	f.seedAssignment(institutionID, requirementID, f.stub.TxTime.Unix()+30*86400)
	f.seedSubmission(submissionID, institutionID, requirementID)
	f.seedReport(reportID, institutionID, requirementID, []string{submissionID})
}
