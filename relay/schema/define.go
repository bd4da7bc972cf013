package schema

// Wire shapes of the results payload seen across API versions.
const (
	// Results is the current shape: summary object plus results[].assertionResults[].
	Results = iota
	// Calls keeps the summary fields on the root and lists calls[].scores[].
	Calls
	// Nested wraps the summary in testRun and nests the test case id in results[].testCase.
	Nested
	// Scored reports only a pre-aggregated assertion score in summary.scores.overall.
	Scored

	Dummy // this one is only for count, do not add any schema after this
)

var names = [...]string{
	Results: "results",
	Calls:   "calls",
	Nested:  "nested",
	Scored:  "scored",
}

// Name returns the short name used in logs.
func Name(schemaType int) string {
	if schemaType < 0 || schemaType >= Dummy {
		return "unknown"
	}
	return names[schemaType]
}

// Parse returns the schema type for a short name, or Dummy when the name is unknown.
func Parse(name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return Dummy
}
