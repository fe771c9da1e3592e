package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"first_name":"Ann","last_name":"Lee"}`), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.FullName != "Ann Lee" {
		t.Errorf("expected full_name 'Ann Lee', got %q", p.FullName)
	}
}

func TestHandler_CreatePatient_NoName(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"email":"x@example.com"}`), httptest.NewRecorder())

	expectHTTPError(t, h.CreatePatient(c), http.StatusUnprocessableEntity)
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("77")

	expectHTTPError(t, h.GetPatient(c), http.StatusNotFound)
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	expectHTTPError(t, h.GetPatient(c), http.StatusBadRequest)
}

func TestHandler_UpdatePatient_Partial(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(nil, NewPatient{FirstName: strPtr("Ann"), LastName: strPtr("Lee"), Phone: strPtr("555")})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, `{"first_name":"Beth"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Patient
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.FullName != "Beth Lee" {
		t.Errorf("expected 'Beth Lee', got %q", got.FullName)
	}
	if got.Phone == nil || *got.Phone != "555" {
		t.Errorf("expected phone kept, got %v", got.Phone)
	}
}

func TestHandler_UpdatePatient_BadJSON(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(nil, NewPatient{FullName: strPtr("Jane Roe")})

	c := e.NewContext(jsonRequest(http.MethodPut, `{"first_name":`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))

	expectHTTPError(t, h.UpdatePatient(c), http.StatusBadRequest)
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	for _, n := range []string{"A", "B", "C"} {
		h.svc.CreatePatient(nil, NewPatient{FullName: strPtr(n)})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Patient `json:"data"`
		Total   int       `json:"total"`
		HasMore bool      `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Data) != 2 || body.Total != 3 || !body.HasMore {
		t.Errorf("unexpected page: %+v", body)
	}
	if rec.Header().Get("Link") == "" {
		t.Error("expected Link header for a partial page")
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(nil, NewPatient{FullName: strPtr("Jane Roe")})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
