package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError represents a non-2xx response from the backend. Message is
// the backend's own explanation when the body carried one, otherwise the
// standard status text.
type StatusError struct {
	StatusCode int
	Message    string
	// ServerMessage reports whether Message came from the response body.
	ServerMessage bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apiclient: HTTP %d: %s", e.StatusCode, e.Message)
}

// AsStatus returns the StatusError wrapped in err, if any.
func AsStatus(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

// HasStatus reports whether err is a StatusError with one of codes.
func HasStatus(err error, codes ...int) bool {
	statusErr, ok := AsStatus(err)
	if !ok {
		return false
	}
	for _, code := range codes {
		if statusErr.StatusCode == code {
			return true
		}
	}
	return false
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Title   string `json:"title"`
}

func newStatusError(resp *http.Response) *StatusError {
	out := &StatusError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return out
	}

	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		for _, candidate := range []string{body.Message, body.Error, body.Title} {
			if strings.TrimSpace(candidate) != "" {
				out.Message = candidate
				out.ServerMessage = true
				return out
			}
		}
		return out
	}

	// Some endpoints answer with a bare JSON string or plain text.
	var text string
	if json.Unmarshal(data, &text) == nil && strings.TrimSpace(text) != "" {
		out.Message = text
		out.ServerMessage = true
		return out
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/plain") {
		if text := strings.TrimSpace(string(data)); text != "" {
			out.Message = text
			out.ServerMessage = true
		}
	}
	return out
}
