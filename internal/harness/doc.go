// Package harness provides scenario-driven conformance testing for the
// vellum pipeline.
//
// The harness loads YAML scenario files, executes them against a real
// session and engine, and validates per-step outcomes and final session
// state as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	document: "Current total: {{total}}"
//	writer: |
//	  async ({ store }) => { ... }
//	reader: |
//	  async ({ store }) => { ... }
//	fetch:
//	  - url: "https://feed.test/rate"
//	    body: "1.0786"
//	steps:
//	  - op: sync
//	    expect:
//	      checkpoint: 2
//	      variables: { total: "3" }
//	  - op: feed
//	    text: "...streamed agent text..."
//	    chunks: 7
//	  - op: apply
//	  - op: restore
//	    index: 2
//	assertions:
//	  - type: history_count
//	    count: 3
//	  - type: document_contains
//	    text: "Current total: 3"
//
// # Step Operations
//
// The following step operations are supported:
//
//   - sync: run the writer/reader pipeline once and commit a checkpoint
//   - feed: stream transcript text into the directive parser
//   - apply: fold extracted directives into the session
//   - edit: replace the document or scripts directly
//   - restore: rewind to an earlier checkpoint, discarding later ones
//   - diff: render the line diff between two checkpoint contents
//   - export: capture the session's portable export record
//
// # Assertion Types
//
// Assertions run after the last step, against the final session state:
//
//   - history_count: the checkpoint log holds exactly N entries
//   - document_contains: the rendered document contains a substring
//   - variables: the final variable set matches expected renderings
//   - remainder_contains: the parser remainder contains a substring
//   - fetch_count: fetchExternal was called exactly N times
//
// # Deterministic Testing
//
// Every scenario runs in a fresh session directory with a fixed clock
// and canned fetch responses, so repeated runs produce identical traces
// for golden file comparison.
//
// The harness uses:
//   - A fixed checkpoint clock (testutil.FixedClock)
//   - Canned fetchExternal responses (testutil.CannedFetcher)
//   - A throwaway session directory, removed after the run
//
// Checkpoint IDs are content-addressed and timestamps are excluded from
// snapshots, so traces are byte-identical across runs.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/totals_pipeline.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
