package contract

import (
	"testing"

	"regtrace/model"

	"github.com/stretchr/testify/suite"
)

type ReportSuite struct {
	registryFixture
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportSuite))
}

func (s *ReportSuite) SetupTest() {
	s.registryFixture.SetupTest()
	s.seedVerifiedInstitution("inst-001")
	s.seedRequirement("req-001")
	s.seedAssignment("inst-001", "req-001", s.stub.TxTime.Unix()+30*86400)
	s.seedSubmission("sub-001", "inst-001", "req-001")
	s.seedSubmission("sub-002", "inst-001", "req-001")
}

func (s *ReportSuite) TestGenerateAndGet() {
	id, err := s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-001", "req-001",
		[]string{"sub-001", "sub-002"}, validDataHash, "ipfs://QmReport456", "pdf", "Q1 report")
	s.Require().NoError(err)
	s.Equal("rep-001", id)

	report, err := s.reports.GetReport(s.adminCtx(), "rep-001")
	s.Require().NoError(err)
	s.Require().NotNil(report)
	s.Equal("inst-001", report.InstitutionID)
	s.Equal([]string{"sub-001", "sub-002"}, report.SubmissionIDs)
	s.Equal(model.ReportGenerated, report.Status)
	s.Equal(s.stub.TxTime.Unix(), report.GenerationDate)

	meta, err := s.reports.GetReportMetadata(s.adminCtx(), "rep-001")
	s.Require().NoError(err)
	s.Require().NotNil(meta)
	s.Equal("ipfs://QmReport456", meta.ReportLocation)
	s.Equal("pdf", meta.ReportFormat)
	s.Equal(reporterID, meta.Generator)
}

func (s *ReportSuite) TestGenerateRejectsEmptySubmissionList() {
	_, err := s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-001", "req-001",
		nil, validDataHash, "ipfs://QmReport456", "pdf", "")
	s.Require().ErrorIs(err, ErrInvalidArgument)
}

func (s *ReportSuite) TestGenerateRejectsUnknownSubmission() {
	_, err := s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-001", "req-001",
		[]string{"sub-001", "sub-missing"}, validDataHash, "ipfs://QmReport456", "pdf", "")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *ReportSuite) TestGenerateRejectsMismatchedSubmission() {
	// sub-other belongs to a different institution/requirement pair.
	s.seedVerifiedInstitution("inst-002")
	s.seedRequirement("req-002")
	s.seedAssignment("inst-002", "req-002", s.stub.TxTime.Unix()+30*86400)
	s.seedSubmission("sub-other", "inst-002", "req-002")

	_, err := s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-001", "req-001",
		[]string{"sub-001", "sub-other"}, validDataHash, "ipfs://QmReport456", "pdf", "")
	s.Require().ErrorIs(err, ErrInvalidArgument)
}

func (s *ReportSuite) TestGenerateRejectsUnknownInstitutionOrRequirement() {
	_, err := s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-missing", "req-001",
		[]string{"sub-001"}, validDataHash, "ipfs://QmReport456", "pdf", "")
	s.Require().ErrorIs(err, ErrNotFound)

	_, err = s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-001", "req-missing",
		[]string{"sub-001"}, validDataHash, "ipfs://QmReport456", "pdf", "")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *ReportSuite) TestGenerateDuplicateFails() {
	s.seedReport("rep-001", "inst-001", "req-001", []string{"sub-001"})
	_, err := s.reports.GenerateReport(s.ctxFor(reporterID), "rep-001", "inst-001", "req-001",
		[]string{"sub-002"}, validDataHash, "ipfs://QmReport789", "pdf", "")
	s.Require().ErrorIs(err, ErrAlreadyExists)
}

func (s *ReportSuite) TestFinalizeOnce() {
	s.seedReport("rep-001", "inst-001", "req-001", []string{"sub-001"})

	ok, err := s.reports.FinalizeReport(s.adminCtx(), "rep-001")
	s.Require().NoError(err)
	s.True(ok)

	report, err := s.reports.GetReport(s.adminCtx(), "rep-001")
	s.Require().NoError(err)
	s.Equal(model.ReportFinalized, report.Status)

	// Re-finalizing a finalized report is a hard failure.
	_, err = s.reports.FinalizeReport(s.adminCtx(), "rep-001")
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *ReportSuite) TestFinalizeUnknownFails() {
	_, err := s.reports.FinalizeReport(s.adminCtx(), "rep-missing")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *ReportSuite) TestFinalizeRequiresAdmin() {
	s.seedReport("rep-001", "inst-001", "req-001", []string{"sub-001"})
	_, err := s.reports.FinalizeReport(s.ctxFor(reporterID), "rep-001")
	s.Require().ErrorIs(err, ErrUnauthorized)
}

func (s *ReportSuite) TestGetUnknownReturnsAbsent() {
	report, err := s.reports.GetReport(s.adminCtx(), "rep-missing")
	s.Require().NoError(err)
	s.Nil(report)

	meta, err := s.reports.GetReportMetadata(s.adminCtx(), "rep-missing")
	s.Require().NoError(err)
	s.Nil(meta)
}
