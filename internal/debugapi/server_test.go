package debugapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/samcharles93/ifcstep/internal/logger"
	"github.com/samcharles93/ifcstep/pkg/step"
)

const fixture = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('','',(''),(''),'','','');
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1=IFCPROJECT('guid',$,$,$,$,$,$,$,#2);
#2=IFCUNITASSIGNMENT((#3));
#3=IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.);
ENDSEC;
END-ISO-10303-21;
`

func openTestModel(t *testing.T) step.ModelID {
	t.Helper()
	id, err := step.OpenModel([]byte(fixture), step.DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("OpenModel: %v", err)
	}
	t.Cleanup(func() { step.CloseModel(id) })
	return id
}

func TestListModels(t *testing.T) {
	id := openTestModel(t)
	srv := New(logger.Nop(), 100, 10)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var models []modelSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &models); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	found := false
	for _, m := range models {
		if m.ID == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("model %d not present in %+v", id, models)
	}
}

func TestGetLine(t *testing.T) {
	id := openTestModel(t)
	srv := New(logger.Nop(), 100, 10)

	req := httptest.NewRequest(http.MethodGet, "/models/"+strconv.FormatUint(uint64(id), 10)+"/lines/1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var line rawLineJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &line); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if line.Handle != 1 {
		t.Errorf("Handle = %d, want 1", line.Handle)
	}
}

func TestGetLineUnknownHandleReturns404(t *testing.T) {
	id := openTestModel(t)
	srv := New(logger.Nop(), 100, 10)

	req := httptest.NewRequest(http.MethodGet, "/models/"+strconv.FormatUint(uint64(id), 10)+"/lines/9999", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLinesOfType(t *testing.T) {
	id := openTestModel(t)
	srv := New(logger.Nop(), 100, 10)

	req := httptest.NewRequest(http.MethodGet, "/models/"+strconv.FormatUint(uint64(id), 10)+"/types/"+strconv.FormatUint(uint64(step.TypeIFCPROJECT), 10), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var handles []step.Handle
	if err := json.Unmarshal(rec.Body.Bytes(), &handles); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(handles) != 1 || handles[0] != 1 {
		t.Fatalf("handles = %v, want [1]", handles)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	openTestModel(t)
	srv := New(logger.Nop(), 0, 1)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec1 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec1, req)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/models", nil))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec2.Code)
	}
}
