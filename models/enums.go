package models

import "fmt"

// AccountType distinguishes regular users from admins. The admin flag is
// stored and serialized but checked by no endpoint.
type AccountType int

const (
	AccountTypeUser  AccountType = 0
	AccountTypeAdmin AccountType = 1
)

// AccountTypeFromInt maps a stored integer to an AccountType, rejecting
// out-of-range values.
func AccountTypeFromInt(v int) (AccountType, error) {
	switch v {
	case 0:
		return AccountTypeUser, nil
	case 1:
		return AccountTypeAdmin, nil
	default:
		return 0, fmt.Errorf("invalid account type: %d", v)
	}
}

// AssessmentStatus tracks an assessment's progress.
type AssessmentStatus int

const (
	AssessmentPending    AssessmentStatus = 0
	AssessmentInProgress AssessmentStatus = 1
	AssessmentDone       AssessmentStatus = 2
)

// AssessmentStatusFromInt maps a stored integer to an AssessmentStatus,
// rejecting out-of-range values.
func AssessmentStatusFromInt(v int) (AssessmentStatus, error) {
	switch v {
	case 0:
		return AssessmentPending, nil
	case 1:
		return AssessmentInProgress, nil
	case 2:
		return AssessmentDone, nil
	default:
		return 0, fmt.Errorf("invalid assessment status: %d", v)
	}
}

// DuePeriod locates an assessment within its due date.
type DuePeriod int

const (
	DuePeriodAM     DuePeriod = 0
	DuePeriodPM     DuePeriod = 1
	DuePeriodAllDay DuePeriod = 2
)

// DuePeriodFromInt maps a stored integer to a DuePeriod, rejecting
// out-of-range values.
func DuePeriodFromInt(v int) (DuePeriod, error) {
	switch v {
	case 0:
		return DuePeriodAM, nil
	case 1:
		return DuePeriodPM, nil
	case 2:
		return DuePeriodAllDay, nil
	default:
		return 0, fmt.Errorf("invalid due period: %d", v)
	}
}
