package errorx

type Code int

// Unknown is returned to the client whenever an error isn't an errorx.Error.
// The real cause must have been logged before the handler returns it.
var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	TooManyRequests  Code = 100009

	// Refresh token codes
	StolenDetected Code = 200001
	TokenExpired   Code = 200002

	// Attestation codes
	InvalidAttestation Code = 300001
	UnknownAttestor    Code = 300002
)
