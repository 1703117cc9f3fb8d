// Package errors defines the stable error-code taxonomy used at every
// boundary the core exposes to callers (tool executor results, HTTP
// responses, chat/RCA synthesis). Collectors never raise; they append to
// Investigation.Errors instead of using this package.
package errors

import (
	"errors"
	"fmt"
)

// Stable codes from spec.md §7.
const (
	// Input
	CodeCaseIDRequired               = "case_id_required"
	CodeTimeWindowRequired           = "time_window_required"
	CodeReferenceTimeInvalid         = "reference_time_must_be_original_or_now"
	CodeInvalidStatus                = "invalid_status"
	CodeResolutionCategoryRequired   = "resolution_category_required"
	CodeResolutionSummaryRequired    = "resolution_summary_required"
	CodeContentRequired              = "content_required"
	CodeInvalidRole                  = "invalid_role"
	CodeUserKeyRequired               = "user_key_required"
	CodeThreadIDRequired              = "thread_id_required"

	// Config
	CodePostgresNotConfigured = "postgres_not_configured"
	CodeToolNotAllowed        = "tool_not_allowed"
	CodeMissingAPIKey         = "missing_api_key"
	CodeMissingGCPProject     = "missing_gcp_project"
	CodeMissingGCPLocation    = "missing_gcp_location"
	CodeMissingADCCreds       = "missing_adc_credentials"
	CodeProviderNotConfigured = "provider_not_configured"

	// Remote
	CodeTimeWindowTooLarge = "time_window_too_large"
	CodeDBUnavailable      = "db_unavailable"
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission_denied"

	// Runtime (not a failure — a dedup outcome)
	CodeSkippedDuplicate = "skipped_duplicate"

	// Tool-executor specific (spec.md §4.7)
	CodeToolMissing       = "tool_missing"
	CodeTimeWindowReq2    = "time_window_required" // alias kept for clarity at call sites
	CodeNoIAMRoleAnnotation = "no_iam_role_annotation"
)

// ModelNotFound builds the "model_not_found:<id>" stable code.
func ModelNotFound(id string) string { return fmt.Sprintf("model_not_found:%s", id) }

// SDKImportFailed builds the "sdk_import_failed:<name>" stable code.
func SDKImportFailed(name string) string { return fmt.Sprintf("sdk_import_failed:%s", name) }

// ToolException builds the "tool_exception:<Kind>:<snippet>" stable code
// used when a tool call panics or returns an unexpected error shape.
func ToolException(kind, snippet string) string {
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Sprintf("tool_exception:%s:%s", kind, snippet)
}

// Coded wraps an error with a stable code.
type Coded struct {
	Code string
	Err  error
}

func (c *Coded) Error() string {
	if c.Err == nil {
		return c.Code
	}
	return fmt.Sprintf("%s: %v", c.Code, c.Err)
}

func (c *Coded) Unwrap() error { return c.Err }

// New returns a Coded error with no underlying cause.
func New(code string) error { return &Coded{Code: code} }

// Wrap attaches a stable code to an underlying error.
func Wrap(code string, err error) error {
	if err == nil {
		return nil
	}
	return &Coded{Code: code, Err: err}
}

// CodeOf extracts the stable code from err, or "" if err does not carry one.
func CodeOf(err error) string {
	var c *Coded
	if errors.As(err, &c) {
		return c.Code
	}
	return ""
}

// Is reports whether err carries the given stable code.
func Is(err error, code string) bool { return CodeOf(err) == code }
