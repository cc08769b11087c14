package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Parse errors (100-199)
	ErrCodeFieldCountMismatch ErrorCode = 100
	ErrCodeTimestampFormat    ErrorCode = 101
	ErrCodeTimestampParse     ErrorCode = 102
	ErrCodePriceParse         ErrorCode = 103
	ErrCodeVolumeParse        ErrorCode = 104

	// Analysis errors (200-299)
	ErrCodeInvalidSpread       ErrorCode = 200
	ErrCodeInsufficientSources ErrorCode = 201

	// Configuration/session errors (300-399)
	ErrCodeInvalidConfiguration ErrorCode = 300
	ErrCodeUnknownSource        ErrorCode = 301
	ErrCodeDataPathError        ErrorCode = 302
)
