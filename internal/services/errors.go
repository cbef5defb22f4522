package services

import (
	"errors"
	"fmt"
)

var ErrDiscoveryNotFound = errors.New("latest results link not found")
var ErrMalformedFilename = errors.New("malformed filename")
var ErrMalformedSpreadsheet = errors.New("malformed spreadsheet")
var ErrEncodingRepair = errors.New("legacy encoding repair failed")

// ErrDuplicateContent is returned by the store when a batch with the same
// content hash already exists. Callers treat it as an idempotent no-op.
var ErrDuplicateContent = errors.New("duplicate content")

var ErrBatchNotFound = errors.New("batch not found")
var ErrTaskNotFound = errors.New("task not found")
var ErrInvalidImportValue = errors.New("invalid import value")

// FetchError wraps every network failure of the discovery client: transport
// errors, timeouts and non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DiscoveryError is the single error type returned by a failed ingestion run.
type DiscoveryError struct {
	State IngestionState
	Err   error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed while %s: %v", e.State, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ImportKeyError reports the first missing key of a bulk import document.
type ImportKeyError struct {
	Key  string
	Path string
}

func (e *ImportKeyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid data structure: missing key %q", e.Key)
	}
	return fmt.Sprintf("invalid data structure: missing key %q at %s", e.Key, e.Path)
}

const (
	ErrorKindFetch             = "FetchError"
	ErrorKindDiscoveryNotFound = "DiscoveryNotFound"
	ErrorKindMalformedFilename = "MalformedFilename"
	ErrorKindMalformedSheet    = "MalformedSpreadsheet"
	ErrorKindEncodingRepair    = "EncodingRepairError"
	ErrorKindDuplicateContent  = "DuplicateContent"
	ErrorKindImportStructure   = "ImportStructureError"
	ErrorKindImportValue       = "ImportValueError"
	ErrorKindDiscovery         = "DiscoveryError"
	ErrorKindUnknown           = "Error"
)

// ErrorKind names the most specific known kind in err's chain.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var fetchErr *FetchError
	var keyErr *ImportKeyError
	var discoveryErr *DiscoveryError
	switch {
	case errors.As(err, &fetchErr):
		return ErrorKindFetch
	case errors.Is(err, ErrDiscoveryNotFound):
		return ErrorKindDiscoveryNotFound
	case errors.Is(err, ErrMalformedFilename):
		return ErrorKindMalformedFilename
	case errors.Is(err, ErrMalformedSpreadsheet):
		return ErrorKindMalformedSheet
	case errors.Is(err, ErrEncodingRepair):
		return ErrorKindEncodingRepair
	case errors.Is(err, ErrDuplicateContent):
		return ErrorKindDuplicateContent
	case errors.As(err, &keyErr):
		return ErrorKindImportStructure
	case errors.Is(err, ErrInvalidImportValue):
		return ErrorKindImportValue
	case errors.As(err, &discoveryErr):
		return ErrorKindDiscovery
	default:
		return ErrorKindUnknown
	}
}
