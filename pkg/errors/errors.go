// Package errors provides the sentinel error types the cache returns.
// Foreground cache operations are infallible (spec §7 in the design
// notes); these surface only from Builder.Build and a handful of
// explicit rejection paths.
//
// Package errors 提供缓存返回的标准错误类型。前台缓存操作是不会失败的；
// 这些错误仅来自构建器校验和少数显式拒绝路径。
package errors

import (
	"errors"
	"fmt"
)

// Standard errors that can be returned by the cache.
//
// 缓存可能返回的标准错误。
var (
	// ErrNotFound is returned when a key is not found in the cache.
	ErrNotFound = errors.New("cache: key not found")

	// ErrKeyEmpty is returned when an empty key is provided.
	ErrKeyEmpty = errors.New("cache: key is empty")

	// ErrCacheFull is returned when no victim is available to evict to
	// make room for an admission.
	ErrCacheFull = errors.New("cache: cache is full")

	// ErrDurationTooLong is returned when a configured time-to-live or
	// time-to-idle is out of range. In practice this only fires for a
	// negative duration: the spec's 1000-year ceiling (§4.6) can never
	// actually be exceeded, since time.Duration itself tops out around
	// 292 years.
	//
	// ErrDurationTooLong 在配置的 TTL 或 TTI 超出有效范围时返回。
	ErrDurationTooLong = errors.New("cache: duration is out of range")

	// ErrClosed is returned when an operation is performed on a closed cache.
	ErrClosed = errors.New("cache: cache is closed")

	// ErrAdmissionDenied is returned when a candidate is rejected by the
	// admission policy: its weight alone exceeds capacity, or it lost
	// the TinyLFU frequency comparison against the current victim.
	ErrAdmissionDenied = errors.New("cache: admission denied")
)

// KeyError represents an error related to a specific key.
//
// KeyError 表示与特定键相关的错误。
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Key)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// NewKeyError associates a key with an error.
func NewKeyError(key string, err error) *KeyError {
	return &KeyError{Key: key, Err: err}
}

// ConfigError reports a builder validation failure for a specific
// field, carrying a human-readable cause.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache: invalid %s: %s", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError builds a ConfigError for field, wrapping err.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

// IsNotFound returns true if the error indicates that a key was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCacheFull returns true if the error indicates that the cache is full.
func IsCacheFull(err error) bool {
	return errors.Is(err, ErrCacheFull)
}

// IsClosed returns true if the error indicates that the cache is closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsAdmissionDenied returns true if the error indicates that admission
// was denied.
func IsAdmissionDenied(err error) bool {
	return errors.Is(err, ErrAdmissionDenied)
}

// IsDurationTooLong returns true if the error indicates an out-of-range
// TTL or TTI.
func IsDurationTooLong(err error) bool {
	return errors.Is(err, ErrDurationTooLong)
}
