package bind

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "basematch/internal/platform/errors"
	kit "basematch/internal/platform/testkit"
)

type swipeIn struct {
	SubjectID string `json:"subject_id" validate:"required,eth_addr"`
	Liked     *bool  `json:"liked" validate:"required"`
}

type prefIn struct {
	Gender string `json:"gender" validate:"required,gender"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/v1/swipes", strings.NewReader(body))
}

func TestParseJSON_OK(t *testing.T) {
	in, err := ParseJSON[swipeIn](req(`{"subject_id":"` + kit.Addr(7) + `","liked":false}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if in.SubjectID != kit.Addr(7) || in.Liked == nil || *in.Liked {
		t.Fatalf("decoded = %+v", in)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  perr.ErrorCode
		field string
		msg   string
	}{
		{name: "empty", body: "", code: perr.ErrorCodeJSON, msg: "empty body"},
		{name: "garbage", body: "{", code: perr.ErrorCodeJSON, msg: "invalid JSON"},
		{name: "unknown field", body: `{"subject_id":"` + kit.Addr(1) + `","liked":true,"x":1}`, code: perr.ErrorCodeJSON},
		{name: "trailing", body: `{"subject_id":"` + kit.Addr(1) + `","liked":true} {}`, code: perr.ErrorCodeJSON, msg: "trailing"},
		{name: "bad address", body: `{"subject_id":"0xnope","liked":true}`, code: perr.ErrorCodeValidation, field: "subject_id", msg: "hex address"},
		{name: "missing liked", body: `{"subject_id":"` + kit.Addr(1) + `"}`, code: perr.ErrorCodeValidation, field: "liked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON[swipeIn](req(tt.body))
			if !perr.IsCode(err, tt.code) {
				t.Fatalf("code = %v, want %v (err=%v)", perr.CodeOf(err), tt.code, err)
			}
			if tt.field != "" {
				if e, ok := perr.As(err); !ok || e.Field() != tt.field {
					t.Fatalf("field = %v, want %q", err, tt.field)
				}
			}
			if tt.msg != "" {
				kit.MustContain(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestParseJSON_GenderTag(t *testing.T) {
	if _, err := ParseJSON[prefIn](req(`{"gender":"Female"}`)); err != nil {
		t.Fatalf("Female should validate: %v", err)
	}
	_, err := ParseJSON[prefIn](req(`{"gender":"other"}`))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
	kit.MustContain(t, err.Error(), "male or female")
}

func TestParseJSON_AllowEmptyBody(t *testing.T) {
	got, err := ParseJSON[map[string]any](req(""), JSONOptions{AllowEmptyBody: true})
	if err != nil || got != nil {
		t.Fatalf("got %v err %v", got, err)
	}
}

func TestParseJSON_MaxBytes(t *testing.T) {
	big, _ := json.Marshal(map[string]string{"gender": strings.Repeat("m", 200)})
	_, err := ParseJSON[prefIn](req(string(big)), JSONOptions{MaxBytes: 16, DisallowUnknown: true})
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("oversized body err = %v", err)
	}
}

func TestParseJSON_TrailingSeam(t *testing.T) {
	kit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })
	_, err := ParseJSON[prefIn](req(`{"gender":"male"}`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v", err)
	}
}
