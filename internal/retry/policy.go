// Package retry wraps calls to remote agents with bounded exponential backoff.
package retry

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/spboyer/forge/internal/projectconfig"
)

// Default policy values.
const (
	DefaultMaxRetries    = 3
	DefaultBackoffFactor = 2.0
	DefaultInitialDelay  = time.Second
)

// DefaultRetryOn lists the error names and message fragments treated as
// transient when no list is configured.
var DefaultRetryOn = []string{
	"ConnectionError",
	"TimeoutError",
	"ClientConnectorError",
	"ServerDisconnectedError",
	"Connection aborted",
	"Connection reset",
	"connection refused",
	"i/o timeout",
	"broken pipe",
	"EOF",
}

// Policy configures an Invoker.
type Policy struct {
	// Enabled turns retries on. A disabled policy makes exactly one attempt.
	Enabled bool

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BackoffFactor multiplies the delay after every failed attempt.
	BackoffFactor float64

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// RetryOn holds error type names (e.g. "TimeoutError") or message
	// fragments (e.g. "Connection reset") that mark an error as transient.
	RetryOn []string
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:       true,
		MaxRetries:    DefaultMaxRetries,
		BackoffFactor: DefaultBackoffFactor,
		InitialDelay:  DefaultInitialDelay,
		RetryOn:       append([]string(nil), DefaultRetryOn...),
	}
}

// PolicyFromConfig converts the retry section of .forge.yaml. Unset fields
// keep their defaults.
func PolicyFromConfig(cfg projectconfig.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.Enabled != nil {
		p.Enabled = *cfg.Enabled
	}
	if cfg.MaxRetries != nil {
		p.MaxRetries = *cfg.MaxRetries
	}
	if cfg.BackoffFactor > 0 {
		p.BackoffFactor = cfg.BackoffFactor
	}
	if cfg.InitialDelay > 0 {
		p.InitialDelay = time.Duration(cfg.InitialDelay * float64(time.Second))
	}
	if len(cfg.RetryOn) > 0 {
		p.RetryOn = append([]string(nil), cfg.RetryOn...)
	}
	return p
}

// MaxAttempts is the total number of calls the policy allows.
func (p Policy) MaxAttempts() int {
	if !p.Enabled || p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Delay returns the wait before retry number attempt (0-based):
// InitialDelay * BackoffFactor^attempt.
func (p Policy) Delay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = DefaultBackoffFactor
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt)))
}

// permanentError is implemented by errors that no retry can fix, such as a
// reply that does not parse.
type permanentError interface {
	Permanent() bool
}

// Permanent reports whether any error in err's chain marks itself as
// permanent. Permanent errors are neither retried nor given a fallback call.
func Permanent(err error) bool {
	var perm permanentError
	return errors.As(err, &perm) && perm.Permanent()
}

// Retryable reports whether err matches any entry in RetryOn, either by the
// type name of an error in its chain or as a case-insensitive fragment of the
// message. Permanent errors never match.
func (p Policy) Retryable(err error) bool {
	if err == nil || Permanent(err) {
		return false
	}

	retryOn := p.RetryOn
	if len(retryOn) == 0 {
		retryOn = DefaultRetryOn
	}

	names := errorNames(err)
	msg := strings.ToLower(err.Error())

	for _, kind := range retryOn {
		if kind == "" {
			continue
		}
		for _, name := range names {
			if name == kind {
				return true
			}
		}
		if strings.Contains(msg, strings.ToLower(kind)) {
			return true
		}
	}
	return false
}

type timeoutError interface {
	Timeout() bool
}

// errorNames collects the bare type name of every error in err's chain, plus
// "TimeoutError" when any of them reports a timeout.
func errorNames(err error) []string {
	var names []string

	var walk func(e error)
	walk = func(e error) {
		if e == nil {
			return
		}

		names = append(names, typeName(e))
		if te, ok := e.(timeoutError); ok && te.Timeout() {
			names = append(names, "TimeoutError")
		}

		switch x := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		default:
			walk(errors.Unwrap(e))
		}
	}
	walk(err)

	return names
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
