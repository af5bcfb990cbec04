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

package rules

import "github.com/prometheus/client_golang/prometheus"

var classifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: prometheus.BuildFQName("cgroups", "rules", "classify_total"),
	Help: "Total number of uid/gid/pid classification attempts, by outcome.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(classifyTotal)
}

func observeClassify(err error) {
	if err == nil {
		classifyTotal.WithLabelValues("matched").Inc()
		return
	}
	classifyTotal.WithLabelValues("error").Inc()
}
