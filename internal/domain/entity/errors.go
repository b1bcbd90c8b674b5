package entity

import "errors"

// Structural validation failures for approval lines. Callers classify these
// as configuration errors when a malformed line is encountered mid-flight.
var (
	errLineName           = errors.New("approval line name is required")
	errLineDocumentType   = errors.New("approval line document type is invalid")
	errLineNoSteps        = errors.New("approval line must have at least one step")
	errLineApproverType   = errors.New("approval step approver type is invalid")
	errLineApproverID     = errors.New("SPECIFIC_USER step requires an approver id")
	errLineJobLevel       = errors.New("JOB_LEVEL step requires a job level")
	errLineDuplicateOrder = errors.New("approval step orders must be unique")
	errLineOrderGap       = errors.New("approval step orders must be contiguous from 1")
)
