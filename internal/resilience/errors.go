package resilience

import (
	"errors"
	"net"
	"net/url"
	"syscall"
)

// Kind classifies a fetch failure at the transport layer. Classification is
// by error type, not by message substrings, so the retry policy does not
// depend on client library wording.
type Kind int

const (
	KindUnknown     Kind = iota
	KindDNS              // name resolution failed; environment-level, not retried in-run
	KindTimeout          // deadline exceeded; retried with backoff
	KindConnection       // dial/reset/refused; environment-level, not retried in-run
	KindBlocked          // upstream bot mitigation (403)
	KindRateLimited      // upstream quota signal (429 or credits exhausted)
	KindServer           // transient upstream 5xx
)

func (k Kind) String() string {
	switch k {
	case KindDNS:
		return "dns"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindBlocked:
		return "blocked"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// ClassifiedError tags an error with its transport-layer kind.
type ClassifiedError struct {
	Err  error
	Kind Kind
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// NewClassifiedError wraps err with an explicit kind.
func NewClassifiedError(err error, kind Kind) *ClassifiedError {
	return &ClassifiedError{Err: err, Kind: kind}
}

// Classify determines the kind of a transport error.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return KindConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	return KindUnknown
}

// Retryable reports whether an error of this kind is worth retrying within
// the same strategy. DNS and connection failures are environment-level and
// rarely self-heal within a single run.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}

// IsRetryable is the default ShouldRetry predicate: timeouts and upstream
// rate signals retry, everything else escalates.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}

// IsRetryableHTTPStatus reports whether an HTTP status indicates a
// transient server-side issue.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
