package rev

import (
	"errors"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	okExtract := func(resp *http.Response, body []byte) (string, error) {
		return "extracted:" + string(body), nil
	}

	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
		value  string
	}{
		{name: "ok", status: http.StatusOK, body: "a", value: "extracted:a"},
		{name: "created", status: http.StatusCreated, body: "b", value: "extracted:b"},
		{name: "accepted", status: http.StatusAccepted, want: KindRequestFailed},
		{name: "no content", status: http.StatusNoContent, want: KindRequestFailed},
		{name: "bad request with error body", status: http.StatusBadRequest, body: `{"code":1,"message":"m"}`, want: KindAPI},
		{name: "bad request without code", status: http.StatusBadRequest, body: `{"message":"m"}`, want: KindUnexpected},
		{name: "bad request garbage", status: http.StatusBadRequest, body: `oops`, want: KindUnexpected},
		{name: "unauthorized", status: http.StatusUnauthorized, want: KindRequestFailed},
		{name: "not found", status: http.StatusNotFound, want: KindNotFound},
		{name: "server error", status: http.StatusBadGateway, want: KindRequestFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			res := classify("https://api/orders", resp, []byte(tt.body), okExtract)

			if tt.want == "" {
				if res.Err != nil {
					t.Fatalf("unexpected error: %v", res.Err)
				}
				if res.Value != tt.value {
					t.Fatalf("value = %q, want %q", res.Value, tt.value)
				}
				return
			}
			if got := KindOf(res.Err); got != tt.want {
				t.Fatalf("kind = %q, want %q (err %v)", got, tt.want, res.Err)
			}
		})
	}
}

func TestClassifyWrapsForeignExtractorErrors(t *testing.T) {
	t.Parallel()

	failing := func(resp *http.Response, body []byte) (int, error) {
		return 0, errors.New("boom")
	}

	res := classify("u", &http.Response{StatusCode: http.StatusOK}, nil, failing)
	if !errors.Is(res.Err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", res.Err)
	}
}

func TestExtractLocation(t *testing.T) {
	t.Parallel()

	resp := &http.Response{Header: http.Header{"Location": []string{"urn:rev:inputmedia:x"}}}
	got, err := extractLocation(resp, nil)
	if err != nil || got != "urn:rev:inputmedia:x" {
		t.Fatalf("extractLocation = %q, %v", got, err)
	}

	if _, err := extractLocation(&http.Response{Header: http.Header{}}, nil); !errors.Is(err, ErrUnexpected) {
		t.Fatalf("err = %v, want ErrUnexpected", err)
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *Error
		want string
	}{
		{err: newTransportError(errors.New("dial tcp: refused")), want: "transport error: dial tcp: refused"},
		{err: newRequestFailedError("https://api/inputs", 500, "body"), want: "request to https://api/inputs failed with status 500"},
		{err: newNotFoundError("https://api/orders/ABC"), want: "resource not found: https://api/orders/ABC"},
		{err: newAPIError(10001, "Invalid input"), want: "api error 10001: Invalid input"},
		{err: newUnexpectedError("no Location", nil), want: "unexpected behavior: no Location"},
		{err: newParseError(errors.New("eof")), want: "parse response: eof"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Fatalf("Error() = %q, want %q", got, tt.want)
		}
	}

	if KindOf(errors.New("plain")) != "" || KindOf(nil) != "" {
		t.Fatalf("KindOf must be empty for foreign errors")
	}
}
