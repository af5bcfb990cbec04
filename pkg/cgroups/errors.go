// Copyright 2020 Intel Corporation. All Rights Reserved.
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

package cgroups

import (
	"errors"
	"fmt"
)

// Kind is a stable error classification, in the order and with the
// meaning of the original libcgroup error codes.
type Kind int

// Error kinds, in the order of the original cgroup_strerror_codes table.
const (
	KindNotCompiled Kind = iota
	KindNotMounted
	KindNotExists
	KindNotCreated
	KindSubsysNotMounted
	KindNotOwner
	KindControllersSplit
	KindNotAllowed
	KindValueExceedsMax
	KindControllerExists
	KindValueExists
	KindInvalidOp
	KindControllerCreateFailed
	KindFail
	KindNotInitialized
	KindValueNotExist
	KindOther
	KindValuesNotEqual
	KindControllersDifferent
	KindParseFailed
	KindRulesNoFile
	KindMountFailed
	KindConfigOpenFailed
	KindEOF

	numKinds
)

var kindText = [numKinds]string{
	KindNotCompiled:            "cgroup support is not compiled in",
	KindNotMounted:             "cgroup is not mounted",
	KindNotExists:              "cgroup does not exist",
	KindNotCreated:             "cgroup has not been created",
	KindSubsysNotMounted:       "one of the needed controllers is not mounted",
	KindNotOwner:               "request came in from a non-owner",
	KindControllersSplit:       "controllers are bound to different mount points",
	KindNotAllowed:             "operation not allowed",
	KindValueExceedsMax:        "value set exceeds maximum",
	KindControllerExists:       "controller already exists",
	KindValueExists:            "value already exists",
	KindInvalidOp:              "invalid operation",
	KindControllerCreateFailed: "creation of controller failed",
	KindFail:                   "operation failed",
	KindNotInitialized:         "cgroup support is not initialized",
	KindValueNotExist:          "trying to set a value for a control that does not exist",
	KindOther:                  "generic error",
	KindValuesNotEqual:         "values are not equal",
	KindControllersDifferent:   "controllers are different",
	KindParseFailed:            "parsing failed",
	KindRulesNoFile:            "rules file does not exist",
	KindMountFailed:            "mounting failed",
	KindConfigOpenFailed:       "the config file could not be opened",
	KindEOF:                    "end of file or iterator",
}

// String returns the stable, human-readable description for k.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("cgroup error %d", int(k))
	}
	return kindText[k]
}

// Error is the error type returned by every operation in this package. It
// carries a stable Kind plus, for KindOther, the underlying OS error that
// caused it -- this is the tagged-error-variant replacement for the
// original library's thread-local last_errno (see DESIGN.md).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap allows errors.Is/errors.As to see through to the underlying OS
// error, when there is one.
func (e *Error) Unwrap() error {
	return e.Err
}

// newErr creates an *Error of the given kind with no wrapped cause.
func newErr(k Kind) *Error {
	return &Error{Kind: k}
}

// wrapErr creates an *Error of kind k wrapping err, or a plain *Error of
// kind k if err is nil.
func wrapErr(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

// KindOf extracts the Kind from err, if err is (or wraps) an *Error.
// Non-library errors are reported as KindOther.
func KindOf(err error) Kind {
	if err == nil {
		return -1
	}
	var cgErr *Error
	if errors.As(err, &cgErr) {
		return cgErr.Kind
	}
	return KindOther
}
