// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// harness.go - Test execution, criteria evaluation and summary reporting.
package evaluate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Executor runs a single prompt through the system under test. A non-nil
// error fails the case: executors that handle a prompt by refusing it
// report the refusal in the output string instead.
type Executor func(ctx context.Context, prompt string) (string, error)

// TestResult records one case execution.
type TestResult struct {
	CaseID   int           `json:"case_id"`
	Category Category      `json:"category"`
	Prompt   string        `json:"prompt"`
	Passed   bool          `json:"passed"`
	Output   string        `json:"output,omitempty"`
	Err      string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Failures []string      `json:"failures,omitempty"`
}

// CategoryStats aggregates pass/fail counts per category.
type CategoryStats struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summary is the outcome of a full suite run.
type Summary struct {
	Total      int                       `json:"total"`
	Passed     int                       `json:"passed"`
	Failed     int                       `json:"failed"`
	ByCategory map[Category]CategoryStats `json:"by_category"`
	Results    []TestResult              `json:"results"`
}

// PassRate returns the fraction of passing cases, 0 for an empty run.
func (s Summary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Harness runs a fixed case suite against an executor. Results from the
// most recent RunAll replace any previous run.
type Harness struct {
	cases   []TestCase
	results []TestResult
}

// NewHarness builds a harness over the standard ten-case suite.
func NewHarness() *Harness {
	return &Harness{cases: StandardCases()}
}

// NewHarnessWithCases builds a harness over a caller-supplied suite.
func NewHarnessWithCases(cases []TestCase) *Harness {
	return &Harness{cases: cases}
}

// Cases returns a copy of the suite definitions.
func (h *Harness) Cases() []TestCase {
	out := make([]TestCase, len(h.cases))
	copy(out, h.cases)
	return out
}

// Results returns a copy of the most recent run's results.
func (h *Harness) Results() []TestResult {
	out := make([]TestResult, len(h.results))
	copy(out, h.results)
	return out
}

// RunAll executes every case in order and returns the summary. A panic or
// error inside the executor marks that case failed; it never aborts the run.
func (h *Harness) RunAll(ctx context.Context, exec Executor) Summary {
	h.results = h.results[:0]
	for _, tc := range h.cases {
		h.results = append(h.results, h.runOne(ctx, tc, exec))
	}
	return h.summarize()
}

func (h *Harness) runOne(ctx context.Context, tc TestCase, exec Executor) (res TestResult) {
	res = TestResult{CaseID: tc.ID, Category: tc.Category, Prompt: tc.Prompt}

	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			res.Passed = false
			res.Err = fmt.Sprintf("panic: %v", r)
			res.Failures = append(res.Failures, "no crash")
		}
	}()

	output, err := exec(ctx, tc.Prompt)
	res.Output = output
	crashed := false
	if err != nil {
		// Any error return fails the case. Graceful handling means the
		// executor produced a result; refusals it wants credited must be
		// returned as output, not as errors.
		res.Err = err.Error()
		crashed = true
	}

	res.Failures = evaluateCriteria(tc.Criteria, output, time.Since(start), crashed)
	res.Passed = len(res.Failures) == 0
	return res
}

var (
	lengthCriterion = regexp.MustCompile(`^length\s*>\s*(\d+)$`)
	timingCriterion = regexp.MustCompile(`^processes within (\d+) seconds?$`)
)

// evaluateCriteria returns the criteria the output failed, nil when all pass.
func evaluateCriteria(criteria []string, output string, elapsed time.Duration, crashed bool) []string {
	var failed []string
	for _, c := range criteria {
		c = strings.TrimSpace(c)
		switch {
		case c == "no crash":
			if crashed {
				failed = append(failed, c)
			}
		case lengthCriterion.MatchString(c):
			m := lengthCriterion.FindStringSubmatch(c)
			min, _ := strconv.Atoi(m[1])
			if len(output) <= min {
				failed = append(failed, c)
			}
		case timingCriterion.MatchString(c):
			m := timingCriterion.FindStringSubmatch(c)
			secs, _ := strconv.Atoi(m[1])
			if elapsed > time.Duration(secs)*time.Second {
				failed = append(failed, c)
			}
		default:
			// Unknown criteria fail loudly rather than silently pass.
			failed = append(failed, "unrecognized criterion: "+c)
		}
	}
	return failed
}

func (h *Harness) summarize() Summary {
	sum := Summary{
		ByCategory: make(map[Category]CategoryStats),
		Results:    make([]TestResult, len(h.results)),
	}
	copy(sum.Results, h.results)
	for _, r := range h.results {
		sum.Total++
		st := sum.ByCategory[r.Category]
		st.Total++
		if r.Passed {
			sum.Passed++
			st.Passed++
		} else {
			sum.Failed++
			st.Failed++
		}
		sum.ByCategory[r.Category] = st
	}
	return sum
}
