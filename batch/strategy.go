// Copyright 2025 Docshelf Labs
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


package batch

import (
	"time"

	"github.com/docshelf/canopy/core"
)

// StrategyFn selects a parallelism policy for a document count.
// Callers may supply their own to override the defaults.
type StrategyFn func(count int) core.BatchStrategy

// strategySteps is the default selection table, ordered by upper bound.
// A count at or below a row's bound takes that row; counts beyond the
// last bound fall through to safeBatches. Kept as a table rather than
// nested conditionals so thresholds are easy to retune.
var strategySteps = []struct {
	upperBound int
	strategy   core.BatchStrategy
}{
	{10, core.BatchStrategy{Name: "full-parallel", RiskLevel: "low"}},
	{30, core.BatchStrategy{Name: "large-batches", BatchSize: 15, RiskLevel: "moderate", Pause: time.Second}},
	{100, core.BatchStrategy{Name: "medium-batches", BatchSize: 10, RiskLevel: "elevated", Pause: 2 * time.Second}},
}

// safeBatches is the fallback for runs past the last table bound. Small
// batches and the longest pause keep upstream throttling risk down.
var safeBatches = core.BatchStrategy{
	Name:      "safe-batches",
	BatchSize: 5,
	RiskLevel: "high",
	Pause:     3 * time.Second,
}

// SelectStrategy is the default StrategyFn. It is a pure step function
// of the document count. full-parallel runs every document at once, so
// its batch size is the count itself.
func SelectStrategy(count int) core.BatchStrategy {
	if count < 0 {
		count = 0
	}
	for _, step := range strategySteps {
		if count <= step.upperBound {
			s := step.strategy
			if s.BatchSize == 0 {
				s.BatchSize = count
			}
			return s
		}
	}
	return safeBatches
}
