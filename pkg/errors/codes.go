package errors

// ErrorCode is a stable string identifier for a specific failure category.
// Codes are grouped by module prefix so that log queries and metric labels
// can aggregate per subsystem.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeInvalidParam       ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeNotImplemented     ErrorCode = "COMMON_009"

	// CodeOK is the sentinel returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
	// CodeUnknown is returned by GetCode when no AppError is in the chain.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Structure-file reader error codes.
const (
	// ErrCodeRecordMalformed marks a structure file whose line or field
	// layout deviates from the fixed per-molecule record format.
	ErrCodeRecordMalformed ErrorCode = "QM9_001"
	// ErrCodeRecordFloat marks a numeric field that cannot be parsed even
	// with the tolerant base*^exponent fallback.
	ErrCodeRecordFloat ErrorCode = "QM9_002"
	// ErrCodeRecordInvariant marks a record whose per-atom sequences do not
	// all have length equal to the declared atom count.
	ErrCodeRecordInvariant ErrorCode = "QM9_003"
)

// Chemistry toolkit error codes.
const (
	// ErrCodeStructureUnparseable marks a SMILES string the toolkit cannot
	// turn into a molecular graph or canonicalise.
	ErrCodeStructureUnparseable ErrorCode = "CHEM_001"
	ErrCodeDescriptorFailed     ErrorCode = "CHEM_002"
	ErrCodeScoreModelMissing    ErrorCode = "CHEM_003"
	ErrCodeScoreModelInvalid    ErrorCode = "CHEM_004"
)

// Tokenizer error codes.
const (
	// ErrCodeTokenization marks a tokenizer round-trip failure: the
	// concatenation of the emitted tokens does not reconstruct the input,
	// which means the grammar does not cover a character class.
	ErrCodeTokenization ErrorCode = "TOK_001"
	ErrCodeVocabEmpty   ErrorCode = "TOK_002"
)

// Dataset build and export error codes.
const (
	ErrCodeDatasetEmpty    ErrorCode = "DS_001"
	ErrCodeExportFailed    ErrorCode = "DS_002"
	ErrCodeRegistryUpload  ErrorCode = "DS_003"
	ErrCodeSinkUnavailable ErrorCode = "DS_004"
)

// Training launcher error codes.
const (
	ErrCodeTrainerNotFound ErrorCode = "TRN_001"
	ErrCodeTrainerExit     ErrorCode = "TRN_002"
)

// Infrastructure error codes.
const (
	ErrCodeDatabaseError ErrorCode = "INFRA_001"
	ErrCodeCacheError    ErrorCode = "INFRA_002"
	ErrCodeStorageError  ErrorCode = "INFRA_003"
	ErrCodeMessageQueue  ErrorCode = "INFRA_004"
)

// moduleNames maps code prefixes to human-readable module names, primarily
// for metric labels.
var moduleNames = map[string]string{
	"COMMON": "common",
	"QM9":    "reader",
	"CHEM":   "chem",
	"TOK":    "tokenizer",
	"DS":     "dataset",
	"TRN":    "training",
	"INFRA":  "infrastructure",
}

// ModuleForCode returns the module name owning the given code, or "unknown".
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			if name, ok := moduleNames[s[:i]]; ok {
				return name
			}
			break
		}
	}
	return "unknown"
}
