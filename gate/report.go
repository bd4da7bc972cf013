package gate

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// RenderReport writes the human readable gate report.
func RenderReport(w io.Writer, r *Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Hamming Test Run Report ===")
	fmt.Fprintf(w, "Run: %s  Status: %s\n", orDash(r.RunID), orDash(string(r.Status)))
	fmt.Fprintln(w)

	if r.Reason != "" {
		fmt.Fprintf(w, "FAILED: %s\n\n", r.Reason)
		return
	}

	checks := tablewriter.NewWriter(w)
	checks.SetHeader([]string{"CHECK", "PASSED", "TOTAL", "RATE", "THRESHOLD", "RESULT"})
	checks.Append(checkRow("tests", r.Tests))
	checks.Append(checkRow("assertions ("+string(r.Assertions.Strategy)+")", r.Assertions))
	checks.Render()
	fmt.Fprintln(w)

	cases := tablewriter.NewWriter(w)
	cases.SetHeader([]string{"TEST CASE", "RUN", "STATUS", "LINK"})
	for _, c := range r.Cases {
		cases.Append([]string{orDash(c.TestCaseID), orDash(c.ID), string(c.Status), orDash(c.URL)})
	}
	cases.Render()

	if failing := r.FailingCases(); len(failing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures:")
		for _, c := range failing {
			fmt.Fprintf(w, "- %s (%s)\n", orDash(c.TestCaseID), c.Status)
			for _, a := range c.FailedAssertions {
				fmt.Fprintf(w, "    %s [%s]: %s\n", orDash(a.Name), a.Status,
					oneLine(orDash(a.Reason)))
			}
		}
	}

	fmt.Fprintln(w)
	if r.Passed {
		fmt.Fprintln(w, "PASSED: all quality gates met")
	} else {
		fmt.Fprintln(w, "FAILED: "+strings.Join(r.failedChecks(), ", ")+" below threshold")
	}
	fmt.Fprintln(w)
}

func (r *Result) failedChecks() []string {
	var out []string
	if !r.Tests.OK {
		out = append(out, "test pass rate")
	}
	if !r.Assertions.OK {
		out = append(out, "assertion pass rate")
	}
	return out
}

func checkRow(name string, c RateCheck) []string {
	if c.Skipped {
		return []string{name, "-", "-", "-", formatRate(c.Threshold), "SKIP"}
	}

	passed, total := "-", "-"
	if c.Strategy != StrategySummaryScore {
		passed, total = fmt.Sprint(c.Passed), fmt.Sprint(c.Total)
	}
	result := "FAIL"
	if c.OK {
		result = "PASS"
	}
	return []string{name, passed, total, formatRate(c.Rate), formatRate(c.Threshold), result}
}

func formatRate(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// oneLine collapses whitespace so a multi-line reason stays on its report line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
