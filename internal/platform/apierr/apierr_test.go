package apierr

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorMessagePrecedence(t *testing.T) {
	cause := errors.New("customer not linked")
	e := New(http.StatusConflict, "account_unlinked", cause)
	if e.Error() != "customer not linked" {
		t.Fatalf("wrapped cause should win, got %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Fatalf("cause should stay reachable through Unwrap")
	}

	e = New(http.StatusConflict, "account_unlinked", nil)
	if e.Error() != "account_unlinked" {
		t.Fatalf("code should win without a cause, got %q", e.Error())
	}

	e = New(http.StatusBadGateway, "", nil)
	if e.Error() != "request failed (status 502)" {
		t.Fatalf("status fallback wrong: %q", e.Error())
	}

	var nilErr *Error
	if nilErr.Error() != "" {
		t.Fatalf("nil receiver should render empty, got %q", nilErr.Error())
	}
}
