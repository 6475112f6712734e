package apiclient_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ErlanBelekov/authkit/internal/apiclient"
)

func TestNormalize_PlainError_BecomesUnknown(t *testing.T) {
	got := apiclient.Normalize(errors.New("kaput"))
	if got.StatusCode != 500 || got.Code != apiclient.CodeUnknownError || got.Message != "kaput" {
		t.Errorf("got %+v", got)
	}
}

func TestNormalize_WrappedAPIError_Unwrapped(t *testing.T) {
	orig := &apiclient.APIError{Message: "nope", StatusCode: 403}
	got := apiclient.Normalize(fmt.Errorf("ctx: %w", orig))
	if got != orig {
		t.Errorf("got %+v, want original", got)
	}
}

func TestNormalize_Nil(t *testing.T) {
	if apiclient.Normalize(nil) != nil {
		t.Error("Normalize(nil) != nil")
	}
}

func TestFormatForDisplay_JoinsMessageAndFieldErrors(t *testing.T) {
	err := &apiclient.APIError{
		Message: "Validation failed",
		Errors: map[string][]string{
			"password": {"too short"},
			"email":    {"is required", "must be an email"},
		},
	}
	want := "Validation failed. is required. must be an email. too short"
	if got := apiclient.FormatForDisplay(err); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractMessages_EmptyFallsBack(t *testing.T) {
	for _, err := range []*apiclient.APIError{nil, {}} {
		got := apiclient.ExtractMessages(err)
		if len(got) != 1 || got[0] != "An unknown error occurred" {
			t.Errorf("ExtractMessages(%v) = %v", err, got)
		}
	}
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := apiclient.DecodeEnvelope[map[string]int]([]byte(`{"data":{"n":1},"success":true,"errors":{"x":["y"]}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !env.IsSuccessful() || !env.HasErrors() || env.Data["n"] != 1 {
		t.Errorf("env = %+v", env)
	}

	if env.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want default 200", env.StatusCode)
	}

	_, err = apiclient.DecodeEnvelope[int]([]byte(`{`))
	apiErr, ok := apiclient.AsAPIError(err)
	if !ok || apiErr.Code != apiclient.CodeParseError || apiErr.StatusCode != 500 {
		t.Errorf("err = %+v, want PARSE_ERROR with status 500", apiErr)
	}
}

func TestEnvelope_StatusCodeDrivesSuccess(t *testing.T) {
	cases := []struct {
		raw        string
		successful bool
		hasErrors  bool
	}{
		{`{"success":true,"statusCode":201}`, true, false},
		{`{"success":true,"statusCode":304}`, false, false},
		{`{"success":true,"statusCode":422}`, false, true},
		{`{"success":false,"statusCode":200}`, false, true},
	}
	for _, tc := range cases {
		env, err := apiclient.DecodeEnvelope[any]([]byte(tc.raw))
		if err != nil {
			t.Fatalf("DecodeEnvelope(%s): %v", tc.raw, err)
		}
		if env.IsSuccessful() != tc.successful || env.HasErrors() != tc.hasErrors {
			t.Errorf("%s: IsSuccessful = %v, HasErrors = %v, want %v, %v",
				tc.raw, env.IsSuccessful(), env.HasErrors(), tc.successful, tc.hasErrors)
		}
	}
}

func TestRetryOnNetworkOrServerError(t *testing.T) {
	cases := []struct {
		err  *apiclient.APIError
		want bool
	}{
		{&apiclient.APIError{StatusCode: 0, Code: apiclient.CodeNetworkError}, true},
		{&apiclient.APIError{StatusCode: 503}, true},
		{&apiclient.APIError{StatusCode: 500, Code: apiclient.CodeParseError}, false},
		{&apiclient.APIError{StatusCode: 200, Code: apiclient.CodeParseError}, false},
		{&apiclient.APIError{StatusCode: 404}, false},
	}
	for _, tc := range cases {
		if got := apiclient.RetryOnNetworkOrServerError(tc.err); got != tc.want {
			t.Errorf("RetryOnNetworkOrServerError(%+v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestDecodePaginated_AppliesDefaults(t *testing.T) {
	p, err := apiclient.DecodePaginated[string]([]byte(`{"pagination":{"total":0}}`))
	if err != nil {
		t.Fatalf("DecodePaginated: %v", err)
	}
	if p.Pagination.Page != 1 || p.Pagination.Limit != 10 {
		t.Errorf("pagination = %+v, want page 1 limit 10", p.Pagination)
	}
	if p.Data == nil || len(p.Data) != 0 {
		t.Errorf("data = %v, want empty slice", p.Data)
	}
}
