package models

import "errors"

// Validation errors shared by the domain entities
var (
	// ErrEmptyChannelID indicates a blank channel identifier
	ErrEmptyChannelID = errors.New("channel id must not be empty")

	// ErrEmptyChannelName indicates a blank channel name
	ErrEmptyChannelName = errors.New("channel name must not be empty")

	// ErrRegionRequired indicates a regional channel without a region
	ErrRegionRequired = errors.New("regional channel requires a region")

	// ErrInvalidChannelType indicates an unknown channel type value
	ErrInvalidChannelType = errors.New("invalid channel type")

	// ErrEmptyProgramID indicates a blank program identifier
	ErrEmptyProgramID = errors.New("program id must not be empty")

	// ErrEmptyProgramTitle indicates a blank program title
	ErrEmptyProgramTitle = errors.New("program title must not be empty")

	// ErrInvalidTimeRange indicates end time is not strictly after start time
	ErrInvalidTimeRange = errors.New("end time must be after start time")

	// ErrDescriptionTooLong indicates a description over the allowed length
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")

	// ErrInvalidDateKey indicates a date string that is not 8-digit YYYYMMDD
	ErrInvalidDateKey = errors.New("date must be an 8-digit YYYYMMDD string")
)

// IsValidation reports whether err is one of the domain validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyChannelID,
		ErrEmptyChannelName,
		ErrRegionRequired,
		ErrInvalidChannelType,
		ErrEmptyProgramID,
		ErrEmptyProgramTitle,
		ErrInvalidTimeRange,
		ErrDescriptionTooLong,
		ErrInvalidDateKey,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
