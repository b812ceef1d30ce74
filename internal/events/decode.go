// Package events parses the inbound payloads of the media pipelines.
//
// Two decoding policies exist. Permissive decoding accepts and ignores unknown
// fields; it is used for cloud-provided envelopes whose schema grows over time.
// Strict decoding rejects unknown fields; it is used for requests shaped by our
// own clients.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

// Policy selects how unknown fields are treated.
type Policy int

const (
	// Permissive ignores fields the target type does not declare.
	Permissive Policy = iota
	// Strict fails on fields the target type does not declare.
	Strict
)

// String returns the policy name.
func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "permissive"
}

// ParseResult is either a decoded value or a validation error.
type ParseResult[T any] struct {
	Value T
	Err   error
}

// OK reports whether parsing succeeded.
func (r ParseResult[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the value and error as a conventional pair.
func (r ParseResult[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

func failed[T any](err error) ParseResult[T] {
	return ParseResult[T]{Err: err}
}

// Decode parses a single JSON document into T under the given policy.
func Decode[T any](data []byte, policy Policy) ParseResult[T] {
	var v T

	dec := json.NewDecoder(bytes.NewReader(data))
	if policy == Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&v); err != nil {
		return failed[T](domainerrors.Validationf("invalid %s payload: %v", policy, err))
	}
	if _, err := dec.Token(); err != io.EOF {
		return failed[T](domainerrors.Validationf("invalid %s payload: trailing data after document", policy))
	}

	return ParseResult[T]{Value: v}
}

// Parse decodes data and then checks the validate struct tags of T.
func Parse[T any](data []byte, policy Policy, v *validation.Validator) ParseResult[T] {
	res := Decode[T](data, policy)
	if !res.OK() {
		return res
	}
	if err := v.Validate(res.Value); err != nil {
		return failed[T](err)
	}
	return res
}

// unsupported wraps a decode failure as an unsupported payload error.
func unsupported(what string, err error) error {
	return domainerrors.Wrap(err, domainerrors.CodeUnsupportedPayload, fmt.Sprintf("unsupported %s", what))
}
