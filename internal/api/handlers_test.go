package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/healthdata/internal/auth"
	"example.com/healthdata/internal/domain"
	"example.com/healthdata/internal/healthdata"
)

func newTestHandler(cfg HandlerConfig) *Handler {
	clock := func() time.Time { return time.Date(2024, time.April, 1, 9, 5, 7, 0, time.UTC) }
	service := domain.NewService(healthdata.NewExtractor("pepper"), domain.WithClock(clock))
	if cfg.Prefix == "" {
		cfg.Prefix = "/api/v1"
	}
	return NewHandler(service, cfg)
}

func fixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../healthdata/testdata/export.xml")
	require.NoError(t, err)
	return string(data)
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestExtractStepsSuccess(t *testing.T) {
	h := newTestHandler(HandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1&include_recorded_sleep=true", strings.NewReader(fixture(t)))

	rr := serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp DatasetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "7448106036342aaf_20240401090507", resp.ID)
	require.Equal(t, []RecordView{{
		StartDate: "2024-03-25 07:00:00 +0900",
		EndDate:   "2024-03-25 07:30:00 +0900",
		Value:     "400",
	}}, resp.StepData)
	require.NotNil(t, resp.SleepData)
	require.Len(t, *resp.SleepData, 2)
	require.Equal(t, healthdata.SleepInBedValue, (*resp.SleepData)[0].Value)
}

func TestExtractStepsSleepRequestedButNoneMatched(t *testing.T) {
	doc := `<HealthData>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceVersion="17.2" device="name:iPhone" startDate="2024-03-01 08:00:00 +0900" endDate="2024-03-01 08:10:00 +0900" value="12"/>
</HealthData>`
	h := newTestHandler(HandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1&include_recorded_sleep=true", strings.NewReader(doc))

	rr := serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.Contains(t, raw, "sleepData")
	require.JSONEq(t, `[]`, string(raw["sleepData"]))
}

func TestExtractStepsOmitsSleepByDefault(t *testing.T) {
	h := newTestHandler(HandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps?start_date_of_extract=2024-01-01&end_date_of_extract=2024-02-29", strings.NewReader(fixture(t)))

	rr := serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.NotContains(t, raw, "sleepData")

	var resp DatasetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.StepData, 2)
}

func TestExtractStepsValidationErrors(t *testing.T) {
	h := newTestHandler(HandlerConfig{})
	cases := []struct {
		query  string
		detail string
	}{
		{"", errNoMode.Error()},
		{"?start_date_of_extract=2024-01-01", errPartialRange.Error()},
		{"?months_of_extract=1&start_date_of_extract=2024-01-01&end_date_of_extract=2024-02-01", errBothModes.Error()},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/"+tc.query, strings.NewReader(fixture(t)))
		rr := serve(h, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, "validation_failed", body["type"])
		require.Equal(t, tc.detail, body["detail"])
	}
}

func TestExtractStepsMalformedXML(t *testing.T) {
	h := newTestHandler(HandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1", strings.NewReader("<HealthData><Record>"))

	rr := serve(h, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_xml")
}

func TestExtractStepsEmptyDataset(t *testing.T) {
	h := newTestHandler(HandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1", strings.NewReader("<HealthData><ExportDate value=\"x\"/></HealthData>"))

	rr := serve(h, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "empty_dataset")
}

func TestExtractStepsBodyLimit(t *testing.T) {
	h := newTestHandler(HandlerConfig{MaxBodyBytes: 16})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1", strings.NewReader(fixture(t)))

	rr := serve(h, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestExtractStepsMethodNotAllowed(t *testing.T) {
	h := newTestHandler(HandlerConfig{})
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/extract-steps/?months_of_extract=1", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestExtractStepsRequiresScope(t *testing.T) {
	h := newTestHandler(HandlerConfig{RequireScope: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1", strings.NewReader(fixture(t)))
	require.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1", strings.NewReader(fixture(t)))
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Subject:   "tester",
		Scopes:    map[string]struct{}{"other": {}},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.Equal(t, http.StatusForbidden, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/extract-steps/?months_of_extract=1", strings.NewReader(fixture(t)))
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Subject:   "tester",
		Scopes:    map[string]struct{}{auth.ScopeHealthDataExtract: {}},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestHealthz(t *testing.T) {
	rr := serve(newTestHandler(HandlerConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}
