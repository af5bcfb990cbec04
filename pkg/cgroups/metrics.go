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

import "github.com/prometheus/client_golang/prometheus"

// namespace and subsystem name the metrics this package exposes:
// cgroups_group_operations_total{op,result} and
// cgroups_group_errors_total{op,kind}.
const (
	namespace = "cgroups"
	subsystem = "group"
)

var (
	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(namespace, subsystem, "operations_total"),
		Help: "Total number of group operations performed, by operation and outcome.",
	}, []string{"op", "result"})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(namespace, subsystem, "errors_total"),
		Help: "Total number of group operation failures, by operation and error kind.",
	}, []string{"op", "kind"})
)

func init() {
	prometheus.MustRegister(operationsTotal, errorsTotal)
}

// observe records the outcome of a driver operation op against err, using
// err's Kind when it carries one.
func observe(op string, err error) {
	if err == nil {
		operationsTotal.WithLabelValues(op, "success").Inc()
		return
	}
	operationsTotal.WithLabelValues(op, "failure").Inc()
	errorsTotal.WithLabelValues(op, KindOf(err).String()).Inc()
}
