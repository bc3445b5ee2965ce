package core

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	WebAuthErrorCancelled       = "WEBAUTH_CANCELLED"
	WebAuthErrorInvalidResponse = "WEBAUTH_INVALID_RESPONSE"
	WebAuthErrorServerError     = "WEBAUTH_SERVER_ERROR"
	WebAuthErrorRequestFailed   = "WEBAUTH_REQUEST_FAILED"
)

// NewCancelledError marks a flow aborted by the user or superseded by a newer
// flow. Always recoverable: the caller may simply start again.
func NewCancelledError() error {
	return goerrors.New("core: authorization flow was cancelled", goerrors.CategoryOperation).
		WithTextCode(WebAuthErrorCancelled)
}

// NewInvalidResponseError marks a redirect or token payload that could not be
// interpreted. The raw payload is kept in metadata for diagnostics.
func NewInvalidResponseError(raw []byte) error {
	err := goerrors.New("core: authorization response could not be parsed", goerrors.CategoryBadInput).
		WithTextCode(WebAuthErrorInvalidResponse)
	if len(raw) > 0 {
		err.WithMetadata(map[string]any{"response": string(raw)})
	}
	return err
}

// NewServerError surfaces an error reported by the authorization server
// verbatim: its code, description, and any extra callback parameters.
func NewServerError(code, description string, extras map[string]any) error {
	metadata := map[string]any{"error": code}
	if strings.TrimSpace(description) != "" {
		metadata["error_description"] = description
	}
	for key, value := range extras {
		if _, reserved := metadata[key]; reserved {
			continue
		}
		metadata[key] = value
	}
	message := strings.TrimSpace(code + ": " + description)
	message = strings.TrimSuffix(message, ":")
	return goerrors.New("core: authorization server returned "+message, goerrors.CategoryAuth).
		WithTextCode(WebAuthErrorServerError).
		WithMetadata(metadata)
}

// NewRequestFailedError wraps a local precondition or transport failure.
func NewRequestFailedError(cause error) error {
	if cause == nil {
		return goerrors.New("core: authorization request failed", goerrors.CategoryExternal).
			WithTextCode(WebAuthErrorRequestFailed)
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, "core: authorization request failed").
		WithTextCode(WebAuthErrorRequestFailed)
}

func IsCancelled(err error) bool {
	return errorTextCode(err) == WebAuthErrorCancelled
}

func IsInvalidResponse(err error) bool {
	return errorTextCode(err) == WebAuthErrorInvalidResponse
}

func IsServerError(err error) bool {
	return errorTextCode(err) == WebAuthErrorServerError
}

func IsRequestFailed(err error) bool {
	return errorTextCode(err) == WebAuthErrorRequestFailed
}

// ServerErrorCode returns the `error` code carried by a server error, or ""
// when err is not one.
func ServerErrorCode(err error) string {
	return metadataString(err, "error")
}

// ServerErrorDescription returns the `error_description` carried by a server
// error, or "" when absent.
func ServerErrorDescription(err error) string {
	return metadataString(err, "error_description")
}

func errorTextCode(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	return richErr.TextCode
}

func metadataString(err error, key string) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	value, ok := richErr.Metadata[key]
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return text
}
