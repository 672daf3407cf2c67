package suites

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loykin/apismoke/internal/auth"
	"github.com/loykin/apismoke/internal/auth/jwt"
	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/envelope"
	"github.com/loykin/apismoke/internal/smoke"
	"github.com/loykin/apismoke/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	stub *stub.Server
	opts Options
	deps Deps
	out  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := stub.New(stub.Options{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	v, err := envelope.DefaultValidator()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.BaseURL = srv.URL
	opts.FoodBaseURL = srv.URL
	opts.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.Local) }

	out := &bytes.Buffer{}
	return &harness{
		stub: s,
		opts: opts,
		deps: Deps{Reporter: smoke.NewReporter(out, false), Validator: v},
		out:  out,
	}
}

func (h *harness) run(t *testing.T, name string) smoke.Result {
	t.Helper()
	s, err := Build(name, h.opts, h.deps)
	require.NoError(t, err)
	return smoke.NewRunner(h.deps.Reporter).Run(context.Background(), s)
}

func TestBuild_UnknownSuite(t *testing.T) {
	_, err := Build("nutrition", DefaultOptions(), Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "food, report, weight")
}

func TestFood_MockImagePasses(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, NameFood)

	require.True(t, res.Passed, h.out.String())
	assert.Equal(t, 1, h.stub.Requests(constants.PathHealth))
	assert.Equal(t, 1, h.stub.Requests(constants.PathAnalyzeFood))
	assert.Contains(t, h.out.String(), "usage: apismoke food")
	assert.Contains(t, h.out.String(), "food: Apple")
}

func TestFood_MissingImageFailsBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	h.opts.ImagePath = filepath.Join(t.TempDir(), "nope.jpg")
	res := h.run(t, NameFood)

	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindInput, res.FailedStep().Kind)
	assert.Equal(t, 0, h.stub.Requests(constants.PathHealth))
	assert.Equal(t, smoke.OutcomeSkipped, res.Steps[1].Outcome)
}

func TestFood_UploadImageFile(t *testing.T) {
	h := newHarness(t)
	img := filepath.Join(t.TempDir(), "meal.png")
	require.NoError(t, os.WriteFile(img, []byte("not really a png"), 0o600))
	h.opts.ImagePath = img
	h.opts.Upload = true

	res := h.run(t, NameFood)
	require.True(t, res.Passed, h.out.String())
	assert.Equal(t, 1, h.stub.Requests(constants.PathAnalyzeUpload))
	assert.Equal(t, 0, h.stub.Requests(constants.PathAnalyzeFood))
}

func TestFood_HealthHTMLIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathHealth, stub.Fault{Status: http.StatusBadGateway, Body: "<html>502</html>", ContentType: "text/html"})

	res := h.run(t, NameFood)
	require.False(t, res.Passed)
	assert.Equal(t, stepHealth, res.FailedStep().Name)
	assert.Equal(t, smoke.KindMalformed, res.FailedStep().Kind)
	assert.Equal(t, 0, h.stub.Requests(constants.PathAnalyzeFood))
	assert.Contains(t, h.out.String(), "make sure the backend is running")
}

func TestFood_HealthWrongCode(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathHealth, stub.Fault{Body: `{"code":500,"message":"model not loaded"}`})

	res := h.run(t, NameFood)
	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindBusiness, res.FailedStep().Kind)
	assert.Contains(t, res.FailedStep().Message, "model not loaded")
}

func TestFood_AnalysisUnsuccessful(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathAnalyzeFood, stub.Fault{Body: `{"code":0,"data":{"success":false,"errorMessage":"not food"}}`})

	res := h.run(t, NameFood)
	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindBusiness, res.FailedStep().Kind)
	assert.Contains(t, res.FailedStep().Message, "not food")
}

func TestFood_AnalysisWithoutFood(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathAnalyzeFood, stub.Fault{Body: `{"code":0,"data":{"success":true,"food":null}}`})

	res := h.run(t, NameFood)
	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindMissingField, res.FailedStep().Kind)
}

func TestReport_Passes(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, NameReport)

	require.True(t, res.Passed, h.out.String())
	reports, _ := h.stub.Counts()
	assert.Equal(t, 1, reports)
	assert.Contains(t, h.out.String(), "total days: 7")
	assert.Contains(t, h.out.String(), "start date: 2026-10-09")
}

func TestReport_CleanupDeletesReport(t *testing.T) {
	h := newHarness(t)
	h.opts.Cleanup = true
	res := h.run(t, NameReport)

	require.True(t, res.Passed, h.out.String())
	reports, _ := h.stub.Counts()
	assert.Zero(t, reports)
	last := res.Steps[len(res.Steps)-1]
	assert.True(t, last.Cleanup)
	assert.Equal(t, smoke.OutcomePassed, last.Outcome)
}

func TestReport_BadCredentials(t *testing.T) {
	h := newHarness(t)
	h.opts.Password = "wrong"
	res := h.run(t, NameReport)

	require.False(t, res.Passed)
	assert.Equal(t, stepLogin, res.FailedStep().Name)
	assert.Equal(t, smoke.KindBusiness, res.FailedStep().Kind)
	assert.Equal(t, 0, h.stub.Requests(constants.PathReportGenerate))
}

func TestReport_LoginWithoutTokenFailsFast(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathLogin, stub.Fault{Body: `{"code":200,"message":"ok","data":{}}`})
	res := h.run(t, NameReport)

	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindAuth, res.FailedStep().Kind)
	assert.Equal(t, 0, h.stub.Requests(constants.PathReportGenerate))
}

func TestReport_PeriodMismatch(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault("/api/nutrition/report/1", stub.Fault{Body: `{"code":200,"data":{"reportPeriod":"MONTH"}}`})
	res := h.run(t, NameReport)

	require.False(t, res.Passed)
	assert.Equal(t, stepReportDetail, res.FailedStep().Name)
	assert.Equal(t, smoke.KindMismatch, res.FailedStep().Kind)
}

func TestReport_GenerateWithoutID(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathReportGenerate, stub.Fault{Body: `{"code":200,"data":null}`})
	res := h.run(t, NameReport)

	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindMissingField, res.FailedStep().Kind)
}

func TestWeight_PassesWithEmptyHistoryWarning(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, NameWeight)

	require.True(t, res.Passed, h.out.String())
	assert.Equal(t, 1, res.Warnings())
	assert.Equal(t, smoke.OutcomeWarned, res.Steps[1].Outcome)
	_, weights := h.stub.Counts()
	assert.Equal(t, 1, weights)
	assert.Contains(t, h.out.String(), "no weight records yet")
}

func TestWeight_CleanupDeletesRecord(t *testing.T) {
	h := newHarness(t)
	h.opts.Cleanup = true
	res := h.run(t, NameWeight)

	require.True(t, res.Passed, h.out.String())
	_, weights := h.stub.Counts()
	assert.Zero(t, weights)
}

func TestWeight_Mismatch(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathWeightLatest, stub.Fault{Body: `{"code":200,"data":{"id":9,"weight":70.4}}`})
	res := h.run(t, NameWeight)

	require.False(t, res.Passed)
	assert.Equal(t, stepVerifyLatest, res.FailedStep().Name)
	assert.Equal(t, smoke.KindMismatch, res.FailedStep().Kind)
}

func TestWeight_TrailingZeroMatches(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathWeightLatest, stub.Fault{Body: `{"code":200,"data":{"id":9,"weight":70.50}}`})
	res := h.run(t, NameWeight)

	require.True(t, res.Passed, h.out.String())
}

func TestWeight_StatisticsFieldsPrinted(t *testing.T) {
	h := newHarness(t)
	h.stub.SetFault(constants.PathWeightStats, stub.Fault{Body: `{"code":200,"data":{"currentWeight":70.5,"currentBmi":22.1,"bmiStatus":"NORMAL","totalChange":-2.3,"totalRecords":12}}`})
	res := h.run(t, NameWeight)

	require.True(t, res.Passed, h.out.String())
	out := h.out.String()
	assert.Contains(t, out, "totalRecords: 12")
	assert.Contains(t, out, "currentWeight: 70.5")
	assert.Contains(t, out, "totalChange: -2.3")
}

func TestWeight_StaticTokenSkipsLogin(t *testing.T) {
	h := newHarness(t)
	tok, err := jwt.Config{Secret: stub.DefaultSecret, Subject: "testuser"}.Issue()
	require.NoError(t, err)
	h.opts.Auth = &auth.Config{Type: "static", Spec: map[string]interface{}{"token": "${SMOKE_TEST_TOKEN}"}}
	h.deps.Lookup = func(name string) (string, bool) {
		if name == "SMOKE_TEST_TOKEN" {
			return tok, true
		}
		return "", false
	}

	res := h.run(t, NameWeight)
	require.True(t, res.Passed, h.out.String())
	assert.Equal(t, 0, h.stub.Requests(constants.PathLogin))
	assert.True(t, strings.Contains(h.out.String(), "token acquired via static provider"))
}

func TestWeight_ProviderFailureIsAuth(t *testing.T) {
	h := newHarness(t)
	h.opts.Auth = &auth.Config{Type: "static"}
	res := h.run(t, NameWeight)

	require.False(t, res.Passed)
	assert.Equal(t, smoke.KindAuth, res.FailedStep().Kind)
}
