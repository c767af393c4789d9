package harness

import (
	"fmt"
	"path/filepath"
	"sort"
)

// SuiteResult contains results from running a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents one failed scenario in a suite.
type ScenarioFailure struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Errors []string `json:"errors"`
}

// RunSuite loads and executes every scenario file in dir, in name
// order. A scenario that fails to load, errors during execution, or
// fails its assertions counts as one failure; the rest of the suite
// still runs.
//
// For each *.yaml file:
//  1. Load and validate the scenario
//  2. Run it via Run
//  3. Collect pass/fail and error details
func RunSuite(dir string) (*SuiteResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	suite := &SuiteResult{}
	for _, path := range paths {
		suite.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Name:   filepath.Base(path),
				Path:   path,
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			})
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Name:   scenario.Name,
				Path:   path,
				Errors: []string{fmt.Sprintf("scenario execution failed: %v", err)},
			})
			continue
		}

		if !result.Pass {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Name:   scenario.Name,
				Path:   path,
				Errors: result.Errors,
			})
			continue
		}

		suite.Passed++
	}

	return suite, nil
}
