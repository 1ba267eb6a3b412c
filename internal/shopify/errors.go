package shopify

import (
	"fmt"
	"strings"
)

// AuthError is returned when the client-credentials exchange fails or the
// token endpoint answers without an access token.
type AuthError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("shopify auth failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// QueryError is returned when the Admin API rejects a query with
// application-level errors or a non-2xx status that is not a throttle.
type QueryError struct {
	StatusCode int
	Errors     []GraphQLError
	Body       string
	Err        error
}

func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString("shopify query failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case len(e.Errors) > 0:
		msgs := make([]string, 0, len(e.Errors))
		for i := range e.Errors {
			msgs = append(msgs, e.Errors[i].String())
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(msgs, "; "))
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Body != "":
		b.WriteString(": ")
		b.WriteString(truncateBody(e.Body))
	}
	return b.String()
}

func (e *QueryError) Unwrap() error { return e.Err }

// ProtocolError is returned when a response body cannot be parsed into the
// expected structure.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shopify protocol error: %s: %v", e.Reason, e.Err)
	}
	return "shopify protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RetryExhaustedError is returned when every attempt was throttled.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("shopify retries exhausted after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("shopify retries exhausted after %d attempts", e.Attempts)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// errThrottled is the Last cause carried by RetryExhaustedError.
type errThrottled struct {
	reason string
}

func (e errThrottled) Error() string { return "throttled: " + e.reason }

func truncateBody(s string) string {
	const maxLen = 512
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
