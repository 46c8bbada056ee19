package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindStatus     Kind = "http_status"
	KindNetwork    Kind = "network"
	KindBlocked    Kind = "blocked"
	KindUnexpected Kind = "unexpected"
)

// Error is returned for every failed fetch. It always carries the URL.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Block      BlockType
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
	case KindBlocked:
		return fmt.Sprintf("fetch %s: blocked (%s, http %d)", e.URL, e.Block, e.StatusCode)
	}
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s error", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a request or dial timeout.
func (e *Error) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func statusError(rawURL string, code int) *Error {
	return &Error{Kind: KindStatus, URL: rawURL, StatusCode: code}
}

// ErrBodyTooLarge is the cause of a fetch whose body exceeds MaxBodyBytes.
var ErrBodyTooLarge = eris.New("response body exceeds size limit")

func tooLargeError(rawURL string, code int, limit int64) *Error {
	return &Error{
		Kind:       KindUnexpected,
		URL:        rawURL,
		StatusCode: code,
		Err:        eris.Wrapf(ErrBodyTooLarge, "limit %d bytes", limit),
	}
}

// classify maps a transport error onto the network/unexpected split.
func classify(rawURL string, err error) *Error {
	kind := KindUnexpected
	if isNetworkError(err) {
		kind = KindNetwork
	}
	return &Error{Kind: kind, URL: rawURL, Err: err}
}

// isNetworkError reports whether err came from the network rather than from
// a malformed request or response: timeouts, resets, refused connections,
// DNS failures, truncated bodies and cancellation.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Client errors arrive wrapped in *url.Error; look at the message of the
	// inner error for the cases the net package does not type.
	var uErr *url.Error
	if errors.As(err, &uErr) {
		err = uErr.Err
	}
	msg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range networkPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
