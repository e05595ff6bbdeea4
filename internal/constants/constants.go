package constants

// Context keys
const (
	ContextKeyIdentity  = "identity"
	ContextKeyRequestID = "request_id"
	ContextKeyProject   = "project"
)

// Pagination
const (
	PageSize = 10
)

// Validation bounds
const (
	MinUsernameLength = 3
	MaxUsernameLength = 255
	MinPasswordLength = 6
	MaxPasswordLength = 255
	MinTitleLength    = 3
	MaxTitleLength    = 64
	MinNameLength     = 3
	MaxNameLength     = 255
	MinAvatarLength   = 3
	MaxAvatarLength   = 255

	// Project status is an integer in [MinProjectStatus, MaxProjectStatus].
	MinProjectStatus = 0
	MaxProjectStatus = 5
)

// NoResultsMessage is returned by list endpoints when nothing matched.
const NoResultsMessage = "No results"
