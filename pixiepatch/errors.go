// Copyright © 2020 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pixiepatch

import "github.com/pkg/errors"

// IOError indicates a resource the core needed was not available: a missing
// manifest, an unreachable reader target. The caller decides whether to retry.
type IOError struct {
	cause error
}

// NewIOError builds an IOError with the given message.
func NewIOError(msg string) error {
	return &IOError{cause: errors.New(msg)}
}

// WrapIOError wraps err as an IOError with additional context. Returns nil if
// err is nil.
func WrapIOError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &IOError{cause: errors.Wrap(err, msg)}
}

func (e *IOError) Error() string { return e.cause.Error() }
func (e *IOError) Unwrap() error { return e.cause }

// IsIOError reports whether err is (or wraps) an IOError.
func IsIOError(err error) bool {
	var t *IOError
	return errors.As(err, &t)
}

// VerificationError indicates a signature check or post-assembly hash check
// failed. It is fatal for the operation in progress.
type VerificationError struct {
	cause error
}

// NewVerificationError builds a VerificationError with the given message.
func NewVerificationError(msg string) error {
	return &VerificationError{cause: errors.New(msg)}
}

// WrapVerificationError wraps err as a VerificationError. Returns nil if err is nil.
func WrapVerificationError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &VerificationError{cause: errors.Wrap(err, msg)}
}

func (e *VerificationError) Error() string { return e.cause.Error() }
func (e *VerificationError) Unwrap() error { return e.cause }

// IsVerificationError reports whether err is (or wraps) a VerificationError.
func IsVerificationError(err error) bool {
	var t *VerificationError
	return errors.As(err, &t)
}

// DiffError indicates the differ cannot produce (or apply) a delta for a
// particular file pair. The builder recovers from this locally by falling
// back to a full file write; Apply returns it when a delta fails to apply.
type DiffError struct {
	cause error
}

// NewDiffError builds a DiffError with the given message.
func NewDiffError(msg string) error {
	return &DiffError{cause: errors.New(msg)}
}

// WrapDiffError wraps err as a DiffError. Returns nil if err is nil.
func WrapDiffError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &DiffError{cause: errors.Wrap(err, msg)}
}

func (e *DiffError) Error() string { return e.cause.Error() }
func (e *DiffError) Unwrap() error { return e.cause }

// IsDiffError reports whether err is (or wraps) a DiffError.
func IsDiffError(err error) bool {
	var t *DiffError
	return errors.As(err, &t)
}
