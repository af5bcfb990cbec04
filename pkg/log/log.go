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

// Package log provides the leveled, printf-style logger used throughout
// this module. It wraps klog/v2 so that embedding applications get the
// usual klog flags and sinks instead of a bespoke writer.
package log

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Logger is a named, leveled logger.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type klogger struct {
	name string
}

// NewLogger creates a Logger that prefixes every line with name.
func NewLogger(name string) Logger {
	return &klogger{name: name}
}

var defaultLogger = NewLogger("libcgroup")

// Default returns the package-wide default logger instance.
func Default() Logger {
	return defaultLogger
}

func (l *klogger) prefix(format string) string {
	return fmt.Sprintf("[%s] %s", l.name, format)
}

func (l *klogger) Debug(format string, args ...interface{}) {
	klog.V(1).Infof(l.prefix(format), args...)
}

func (l *klogger) Info(format string, args ...interface{}) {
	klog.Infof(l.prefix(format), args...)
}

func (l *klogger) Warn(format string, args ...interface{}) {
	klog.Warningf(l.prefix(format), args...)
}

func (l *klogger) Error(format string, args ...interface{}) {
	klog.Errorf(l.prefix(format), args...)
}
