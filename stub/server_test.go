package stub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/model"
)

func TestRunSnapshot(t *testing.T) {
	Convey("a run reveals its cases one poll at a time", t, func() {
		req := &model.CreateTestRunRequest{
			TestConfigurations: []model.TestConfiguration{
				{TestCaseID: "tc_ok"}, {TestCaseID: "tc_fail"}, {TestCaseID: "tc_error"},
			},
		}
		r := &run{
			id:       "tr_1",
			statuses: []model.RunStatus{model.RunStatusRunning, model.RunStatusRunning, model.RunStatusCompleted},
			cases:    expandCases("tr_1", req),
		}

		st, cases := r.snapshot()
		So(st, ShouldEqual, model.RunStatusRunning)
		So(cases[0].Status, ShouldEqual, model.TestCaseStatusPending)

		So(r.nextStatus(), ShouldEqual, model.RunStatusRunning)
		st, cases = r.snapshot()
		So(st, ShouldEqual, model.RunStatusRunning)
		So(cases[0].Status, ShouldEqual, model.TestCaseStatusPassed)
		So(cases[1].Status, ShouldEqual, model.TestCaseStatusPending)
		So(cases[1].AssertionResults, ShouldBeNil)

		So(r.nextStatus(), ShouldEqual, model.RunStatusRunning)
		So(r.nextStatus(), ShouldEqual, model.RunStatusCompleted)
		So(r.nextStatus(), ShouldEqual, model.RunStatusCompleted)

		st, cases = r.snapshot()
		So(st, ShouldEqual, model.RunStatusCompleted)
		So(cases[1].Status, ShouldEqual, model.TestCaseStatusFailed)
		So(cases[1].AssertionResults[1].Reason, ShouldEqual, "agent skipped identity verification")
		So(cases[2].Status, ShouldEqual, model.TestCaseStatusError)
	})

	Convey("tags expand to two cases and empty selects nothing", t, func() {
		req := &model.CreateTestRunRequest{
			TestConfigurations: []model.TestConfiguration{{TagID: "smoke"}, {TagID: "empty"}},
		}
		cases := expandCases("tr_2", req)
		So(cases, ShouldHaveLength, 2)
		So(cases[0].TestCaseID, ShouldEqual, "smoke-1")
		So(cases[1].TestCaseID, ShouldEqual, "smoke-2")
	})
}

func TestServerHealthAndMetrics(t *testing.T) {
	Convey("health and metrics endpoints", t, func() {
		gin.SetMode(gin.TestMode)
		router := NewRouter(New(Options{APIKey: "k"}), logger.Logger, "info")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		So(w.Code, ShouldEqual, http.StatusOK)

		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rest/test-runs/tr_missing/status", nil)
		req.Header.Set("Authorization", "Bearer k")
		router.ServeHTTP(w, req)
		So(w.Code, ShouldEqual, http.StatusNotFound)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rest/test-runs/test-inbound-agent",
			strings.NewReader(`{}`)))
		So(w.Code, ShouldEqual, http.StatusUnauthorized)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring,
			`hamming_stub_requests_total{code="404",route="/api/rest/test-runs/:id/status"} 1`)
		So(w.Body.String(), ShouldContainSubstring, `code="401"`)
	})
}
