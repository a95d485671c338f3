// Package coreerrors provides the structured error taxonomy shared by every
// core subsystem (cache, version manager, delta engine, derived indices).
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: namespace / registry errors
//   - 2XX: codec errors
//   - 3XX: compression errors
//   - 4XX: disk backend errors
//   - 5XX: version manager errors
//   - 6XX: delta engine errors
//   - 7XX: corpus / derived-index errors
package coreerrors

// Category classifies an error for logging and metrics grouping.
type Category string

const (
	CategoryRegistry   Category = "REGISTRY"
	CategoryCodec      Category = "CODEC"
	CategoryCompress   Category = "COMPRESS"
	CategoryBackend    Category = "BACKEND"
	CategoryVersion    Category = "VERSION"
	CategoryDelta      Category = "DELTA"
	CategoryIndex      Category = "INDEX"
	CategoryInternal   Category = "INTERNAL"
)

// Severity ranks how seriously a caller should treat an error.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Error codes organized by category.
const (
	// Registry / namespace errors (100-199)
	ErrCodeUnknownNamespace = "ERR_101_UNKNOWN_NAMESPACE"
	ErrCodeUnknownKind      = "ERR_102_UNKNOWN_KIND"

	// Codec errors (200-299)
	ErrCodeEncode        = "ERR_201_ENCODE"
	ErrCodeDecode        = "ERR_202_DECODE"
	ErrCodeHashMismatch  = "ERR_203_HASH_MISMATCH"
	ErrCodeContentTooBig = "ERR_204_CONTENT_TOO_LARGE"

	// Compression errors (300-399)
	ErrCodeCompressFailed   = "ERR_301_COMPRESS_FAILED"
	ErrCodeDecompressFailed = "ERR_302_DECOMPRESS_FAILED"

	// Disk backend errors (400-499)
	ErrCodeBackend     = "ERR_401_BACKEND"
	ErrCodeCorruption  = "ERR_402_CORRUPTION"
	ErrCodeFenceLocked = "ERR_403_FENCE_LOCKED"

	// Version manager errors (500-599)
	ErrCodeVersionNotFound    = "ERR_501_VERSION_NOT_FOUND"
	ErrCodeConflictingVersion = "ERR_502_CONFLICTING_VERSION"
	ErrCodeChainBroken        = "ERR_503_CHAIN_BROKEN"

	// Delta engine errors (600-699)
	ErrCodeDeltaApply = "ERR_601_DELTA_APPLY"

	// Corpus / derived-index errors (700-799)
	ErrCodeIntegrity    = "ERR_701_INTEGRITY"
	ErrCodePartialDelete = "ERR_702_PARTIAL_DELETE"
)
