package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"assetd/internal/loader"
	"assetd/internal/store"
)

func TestLoad_UnknownFamilyMaps404(t *testing.T) {
	svc := &mockService{loadErr: loader.ErrUnknownFamily("nope")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/nope/load", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLoadAll_UnknownFamilyMaps404(t *testing.T) {
	svc := &mockService{allErr: loader.ErrUnknownFamily("nope")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/load", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLoad_HTTPErrorMapping(t *testing.T) {
	svc := &mockService{loadErr: mockHTTPError{msg: "slow down", code: http.StatusTooManyRequests}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/highlight/load", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestLoad_GenericErrorMaps500(t *testing.T) {
	svc := &mockService{loadErr: errors.New("boom")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/highlight/load", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestVendor_NotMountedMaps404(t *testing.T) {
	svc := &mockService{contentErr: store.ErrNotMounted("ghost")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vendor/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVendor_GenericErrorMaps500(t *testing.T) {
	svc := &mockService{contentErr: errors.New("disk gone")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vendor/x", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
