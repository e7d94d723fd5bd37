package projectauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
)

type fakeRegistry struct {
	calls int
	data  map[string]ProjectData
	errs  map[string]error
}

func (f *fakeRegistry) FetchProject(_ context.Context, id string) (ProjectData, error) {
	f.calls++
	if err, ok := f.errs[id]; ok {
		return ProjectData{}, err
	}
	return f.data[id], nil
}

func TestValidateCachesPositiveResult(t *testing.T) {
	reg := &fakeRegistry{data: map[string]ProjectData{
		"proj1": {ID: "proj1", IsEnabled: true},
	}}
	a, err := New(reg, nil, time.Minute, 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		data, err := a.Validate(context.Background(), "proj1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data.ID != "proj1" {
			t.Fatalf("unexpected data: %+v", data)
		}
	}
	if reg.calls != 1 {
		t.Fatalf("expected registry to be called once, got %d", reg.calls)
	}
}

func TestValidateCachesNegativeResult(t *testing.T) {
	reg := &fakeRegistry{errs: map[string]error{"unknown": ErrNotFound}}
	a, err := New(reg, nil, time.Minute, 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		_, err := a.Validate(context.Background(), "unknown")
		ae, ok := apperr.As(err)
		if !ok || ae.Reason != apperr.ReasonUnauthorized {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
	}
	if reg.calls != 1 {
		t.Fatalf("expected registry to be called once even for a negative result, got %d", reg.calls)
	}
}

func TestValidateDoesNotCacheTransportFailure(t *testing.T) {
	reg := &fakeRegistry{errs: map[string]error{"proj1": errors.New("connection refused")}}
	a, err := New(reg, nil, time.Minute, 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		_, err := a.Validate(context.Background(), "proj1")
		if err == nil {
			t.Fatal("expected an error")
		}
	}
	if reg.calls != 2 {
		t.Fatalf("expected registry to be retried on transport failure, got %d calls", reg.calls)
	}
}

func TestValidateQuotaExceeded(t *testing.T) {
	reg := &fakeRegistry{data: map[string]ProjectData{
		"proj1": {ID: "proj1", IsEnabled: true, Quota: Quota{Used: 100, Max: 100, Valid: true}},
	}}
	a, err := New(reg, nil, time.Minute, 16)
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Validate(context.Background(), "proj1")
	ae, ok := apperr.As(err)
	if !ok || ae.Reason != apperr.ReasonQuotaExceeded {
		t.Fatalf("expected QuotaExceeded, got %v", err)
	}
}

func TestVerifySecretConstantTime(t *testing.T) {
	if !VerifySecret("abc123", "abc123") {
		t.Fatal("expected matching secrets to verify")
	}
	if VerifySecret("abc123", "wrong!") {
		t.Fatal("expected mismatched secrets to fail")
	}
	if VerifySecret("abc123", "short") {
		t.Fatal("expected length mismatch to fail")
	}
}
