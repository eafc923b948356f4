package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/runtime"
	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
)

type failingService struct{}

func (_ *failingService) Start()        {}
func (_ *failingService) Stop() error   { return nil }
func (_ *failingService) Status() error { return errors.New("oops") }

type healthyService struct{}

func (_ *healthyService) Start()        {}
func (_ *healthyService) Stop() error   { return nil }
func (_ *healthyService) Status() error { return nil }

func TestService_Healthz(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&healthyService{}))
	s := NewService("", registry)

	rr := httptest.NewRecorder()
	s.healthzHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.StringContains(t, "OK", rr.Body.String())
}

func TestService_Healthz_Failing(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&failingService{}))
	s := NewService("", registry)

	rr := httptest.NewRecorder()
	s.healthzHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.StringContains(t, "ERROR oops", rr.Body.String())
}

func TestService_Goroutinez(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	s := NewService("", registry)

	rr := httptest.NewRecorder()
	s.goroutinezHandler(rr, httptest.NewRequest(http.MethodGet, "/goroutinez", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.StringContains(t, "goroutine", rr.Body.String())
}
