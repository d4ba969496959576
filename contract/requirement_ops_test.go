package contract

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RequirementSuite struct {
	registryFixture
}

func TestRequirementSuite(t *testing.T) {
	suite.Run(t, new(RequirementSuite))
}

func (s *RequirementSuite) TestAddAndGet() {
	id, err := s.requirements.AddRequirement(s.adminCtx(), "req-001", "Quarterly Financial Report", "Q1 financial position", "Quarterly", 30)
	s.Require().NoError(err)
	s.Equal("req-001", id)

	requirement, err := s.requirements.GetRequirement(s.adminCtx(), "req-001")
	s.Require().NoError(err)
	s.Require().NotNil(requirement)
	s.Equal("Quarterly Financial Report", requirement.Title)
	s.Equal("quarterly", requirement.Frequency) // normalized
	s.EqualValues(30, requirement.DeadlineDays)
	s.True(requirement.Active)
}

func (s *RequirementSuite) TestAddDuplicateFails() {
	s.seedRequirement("req-001")
	_, err := s.requirements.AddRequirement(s.adminCtx(), "req-001", "Annual Report", "Year-end report", "annual", 60)
	s.Require().ErrorIs(err, ErrAlreadyExists)
}

func (s *RequirementSuite) TestAddValidation() {
	_, err := s.requirements.AddRequirement(s.adminCtx(), "req-001", "Quarterly Financial Report", "", "quarterly", 0)
	s.Require().ErrorIs(err, ErrInvalidArgument)

	_, err = s.requirements.AddRequirement(s.adminCtx(), "req-001", "Quarterly Financial Report", "", "quarterly", -5)
	s.Require().ErrorIs(err, ErrInvalidArgument)

	_, err = s.requirements.AddRequirement(s.adminCtx(), "req-001", "Quarterly Financial Report", "", "fortnightly", 30)
	s.Require().ErrorIs(err, ErrInvalidArgument)
}

func (s *RequirementSuite) TestAddRequiresAdmin() {
	_, err := s.requirements.AddRequirement(s.ctxFor(reporterID), "req-001", "Quarterly Financial Report", "", "quarterly", 30)
	s.Require().ErrorIs(err, ErrUnauthorized)
}

func (s *RequirementSuite) TestAssignRequiresExistingEntities() {
	s.seedRequirement("req-001")
	_, err := s.requirements.AssignRequirement(s.adminCtx(), "inst-missing", "req-001", 1000)
	s.Require().ErrorIs(err, ErrNotFound)

	s.seedVerifiedInstitution("inst-001")
	_, err = s.requirements.AssignRequirement(s.adminCtx(), "inst-001", "req-missing", 1000)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RequirementSuite) TestAssignRequiresVerifiedInstitution() {
	_, err := s.institutions.RegisterInstitution(s.adminCtx(), "inst-001", "Example Bank", "123 Finance St", "LIC-12345")
	s.Require().NoError(err)
	s.seedRequirement("req-001")

	_, err = s.requirements.AssignRequirement(s.adminCtx(), "inst-001", "req-001", 1000)
	s.Require().ErrorIs(err, ErrNotVerified)
}

func (s *RequirementSuite) TestAssignAndGet() {
	s.seedVerifiedInstitution("inst-001")
	s.seedRequirement("req-001")
	due := s.stub.TxTime.Unix() + 30*86400

	ok, err := s.requirements.AssignRequirement(s.adminCtx(), "inst-001", "req-001", due)
	s.Require().NoError(err)
	s.True(ok)

	assignment, err := s.requirements.GetInstitutionRequirement(s.adminCtx(), "inst-001", "req-001")
	s.Require().NoError(err)
	s.Require().NotNil(assignment)
	s.Equal(s.stub.TxTime.Unix(), assignment.AssignedDate)
	s.Equal(due, assignment.NextDueDate)
	s.True(assignment.Active)
}

func (s *RequirementSuite) TestAssignTwiceFails() {
	s.seedVerifiedInstitution("inst-001")
	s.seedRequirement("req-001")
	s.seedAssignment("inst-001", "req-001", 1000)

	_, err := s.requirements.AssignRequirement(s.adminCtx(), "inst-001", "req-001", 2000)
	s.Require().ErrorIs(err, ErrAlreadyAssigned)
}

func (s *RequirementSuite) TestUpdateDueDate() {
	s.seedVerifiedInstitution("inst-001")
	s.seedRequirement("req-001")
	s.seedAssignment("inst-001", "req-001", 1000)

	ok, err := s.requirements.UpdateDueDate(s.adminCtx(), "inst-001", "req-001", 2000)
	s.Require().NoError(err)
	s.True(ok)

	assignment, err := s.requirements.GetInstitutionRequirement(s.adminCtx(), "inst-001", "req-001")
	s.Require().NoError(err)
	s.EqualValues(2000, assignment.NextDueDate)
}

func (s *RequirementSuite) TestUpdateDueDateUnknownAssignment() {
	_, err := s.requirements.UpdateDueDate(s.adminCtx(), "inst-001", "req-001", 2000)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RequirementSuite) TestUpdateDueDateRequiresAdmin() {
	s.seedVerifiedInstitution("inst-001")
	s.seedRequirement("req-001")
	s.seedAssignment("inst-001", "req-001", 1000)

	_, err := s.requirements.UpdateDueDate(s.ctxFor(reporterID), "inst-001", "req-001", 2000)
	s.Require().ErrorIs(err, ErrUnauthorized)
}

func (s *RequirementSuite) TestListInstitutionRequirements() {
	s.seedVerifiedInstitution("inst-001")
	s.seedVerifiedInstitution("inst-002")
	s.seedRequirement("req-001")
	s.seedRequirement("req-002")
	s.seedAssignment("inst-001", "req-001", 1000)
	s.seedAssignment("inst-001", "req-002", 2000)
	s.seedAssignment("inst-002", "req-001", 3000)

	assignments, err := s.requirements.ListInstitutionRequirements(s.adminCtx(), "inst-001")
	s.Require().NoError(err)
	s.Require().Len(assignments, 2)
	s.Equal("req-001", assignments[0].RequirementID)
	s.Equal("req-002", assignments[1].RequirementID)

	assignments, err = s.requirements.ListInstitutionRequirements(s.adminCtx(), "inst-003")
	s.Require().NoError(err)
	s.Empty(assignments)
}

func (s *RequirementSuite) TestGetUnknownReturnsAbsent() {
	requirement, err := s.requirements.GetRequirement(s.adminCtx(), "req-missing")
	s.Require().NoError(err)
	s.Nil(requirement)

	assignment, err := s.requirements.GetInstitutionRequirement(s.adminCtx(), "inst-001", "req-001")
	s.Require().NoError(err)
	s.Nil(assignment)
}
