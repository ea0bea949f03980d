package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnauthorized matches any *Error with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response. Its message is the raw response text.
type Error struct {
	Method     string
	Endpoint   string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *Error) Error() string {
	if len(bytes.TrimSpace(e.Body)) == 0 {
		return "API Error"
	}
	return string(e.Body)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusText is the reason phrase of the response, e.g. "Not Found".
func (e *Error) StatusText() string {
	if _, text, ok := strings.Cut(e.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(e.StatusCode)
}

// Detail is the backend's detail message, or "" when the body has none.
func (e *Error) Detail() string {
	return Detail(e.Body)
}

// NetworkError means the backend could not be reached or the request was
// abandoned before a response arrived.
type NetworkError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsUnreachable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsError returns the *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

type validationIssue struct {
	Msg string `json:"msg"`
}

// Detail extracts the "detail" field of an error body. A list of validation
// issues yields the first issue's msg.
func Detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	var issues []validationIssue
	if err := json.Unmarshal(payload.Detail, &issues); err == nil && len(issues) > 0 {
		return issues[0].Msg
	}
	return ""
}

const (
	topUpFallback        = "Top-up failed"
	unexpectedResponse   = "Unexpected server response."
	missingAmountMessage = "Please enter a valid amount."
)

// TopUpMessage turns a rejected top-up body into the text shown to the user.
// The backend's error shape varies by failure mode, so each known shape is
// tried in turn before the whole body is shown.
func TopUpMessage(body []byte) string {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return unexpectedResponse
	}

	obj, isObject := decoded.(map[string]any)
	switch {
	case isString(decoded):
		return decoded.(string)
	case isObject && truthy(obj["detail"]):
		return detailMessage(obj["detail"])
	case isObject && truthy(obj["message"]) && isString(obj["message"]):
		return obj["message"].(string)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return unexpectedResponse
	}
	return buf.String()
}

func detailMessage(detail any) string {
	switch d := detail.(type) {
	case string:
		return rewriteFieldRequired(d)
	case []any:
		if len(d) == 0 {
			return topUpFallback
		}
		if first, ok := d[0].(map[string]any); ok {
			if msg, ok := first["msg"].(string); ok && msg != "" {
				return rewriteFieldRequired(msg)
			}
		}
		return marshalCompact(d[0])
	default:
		return unexpectedResponse
	}
}

func rewriteFieldRequired(msg string) string {
	if strings.Contains(strings.ToLower(msg), "field required") {
		return missingAmountMessage
	}
	return msg
}

func marshalCompact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return unexpectedResponse
	}
	return string(b)
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// truthy mirrors how the backend's loosely typed fields are tested for presence.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}
