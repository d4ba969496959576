package main

import (
	"regtrace/contract"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func main() {
	institution := new(contract.InstitutionContract)
	institution.Name = "InstitutionVerification"
	requirement := new(contract.RequirementContract)
	requirement.Name = "RequirementTracking"
	submission := new(contract.SubmissionContract)
	submission.Name = "DataCollection"
	report := new(contract.ReportContract)
	report.Name = "ReportGeneration"
	verification := new(contract.VerificationContract)
	verification.Name = "SubmissionVerification"

	cc, err := contractapi.NewChaincode(institution, requirement, submission, report, verification)
	if err != nil {
		panic("Error creating compliance registry chaincode: " + err.Error())
	}
	if err := cc.Start(); err != nil {
		panic("Error starting compliance registry chaincode: " + err.Error())
	}
}
