package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestNewClientRequiresSessionURL(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, errSessionURLRequired) {
		t.Fatalf("expected errSessionURLRequired, got %v", err)
	}
}

func TestCreateSessionPostsHandoff(t *testing.T) {
	var captured Handoff
	var method, contentType string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		method = req.Method
		contentType = req.Header.Get("Content-Type")
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return respond(http.StatusOK, `{"url":"https://pay.test/session/abc"}`), nil
	})

	client, err := NewClient("https://api.test/create-checkout-session", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	handoff := Handoff{
		CartItems:   []Item{{ID: "p1", Name: "Taro Milk Tea", Size: "reg", Price: 2, Quantity: 7}},
		TotalAmount: 12,
	}
	redirect, err := client.CreateSession(context.Background(), handoff)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if redirect != "https://pay.test/session/abc" {
		t.Fatalf("unexpected redirect %q", redirect)
	}
	if method != http.MethodPost || contentType != "application/json" {
		t.Fatalf("unexpected request %s %q", method, contentType)
	}
	if captured.TotalAmount != 12 || len(captured.CartItems) != 1 || captured.CartItems[0].Quantity != 7 {
		t.Fatalf("unexpected payload %+v", captured)
	}
}

func TestCreateSessionMissingURL(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"url":""}`), nil
	})
	client, _ := NewClient("https://api.test/s", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.CreateSession(context.Background(), Handoff{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCreateSessionNonSuccessStatus(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, "upstream down"), nil
	})
	client, _ := NewClient("https://api.test/s", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.CreateSession(context.Background(), Handoff{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected body snippet in error, got %v", err)
	}
}

func TestCreateSessionTransportError(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client, _ := NewClient("https://api.test/s", WithHTTPClient(&http.Client{Transport: rt}))

	if _, err := client.CreateSession(context.Background(), Handoff{}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestVerifySession(t *testing.T) {
	var capturedURL string
	status := http.StatusOK
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", req.Method)
		}
		return respond(status, `{}`), nil
	})
	client, _ := NewClient("https://api.test/s",
		WithVerifyURL("https://api.test/verify-session"),
		WithHTTPClient(&http.Client{Transport: rt}),
	)

	if err := client.VerifySession(context.Background(), "cs_123"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if capturedURL != "https://api.test/verify-session?session_id=cs_123" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}

	status = http.StatusPaymentRequired
	if err := client.VerifySession(context.Background(), "cs_123"); !pkgerrors.IsCode(err, pkgerrors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}

	status = http.StatusInternalServerError
	if err := client.VerifySession(context.Background(), "cs_123"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestVerifySessionValidation(t *testing.T) {
	client, _ := NewClient("https://api.test/s")
	if err := client.VerifySession(context.Background(), "cs_1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected unconfigured verify to fail, got %v", err)
	}

	client, _ = NewClient("https://api.test/s", WithVerifyURL("https://api.test/v"))
	if err := client.VerifySession(context.Background(), " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
