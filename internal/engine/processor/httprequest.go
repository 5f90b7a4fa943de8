package processor

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// Header is a single request header.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HttpRequest sends an HTTP request and returns the response body as text.
type HttpRequest struct {
	URL          string   `json:"url"`
	Method       string   `json:"method"`
	Headers      []Header `json:"headers,omitempty"`
	Body         *string  `json:"body,omitempty"`
	AssertStatus []int    `json:"assert_status,omitempty"`
}

// Error kinds specific to HttpRequest.
const (
	KindURL    = "Url"
	KindHeader = "Header"
	KindStatus = "Status"
)

var validMethods = map[string]bool{
	"CONNECT": true, "DELETE": true, "GET": true, "HEAD": true,
	"OPTIONS": true, "PATCH": true, "POST": true, "PUT": true, "TRACE": true,
}

func (p *HttpRequest) Name() string { return "HTTP Request" }

// Validate checks that URL parses and every header name/value is a legal
// HTTP header.
func (p *HttpRequest) Validate() error {
	if _, err := url.ParseRequestURI(p.URL); err != nil {
		return wrapError(KindURL, err, "url error: %s", err)
	}
	if !validMethods[strings.ToUpper(p.Method)] {
		return newError(KindURL, "unsupported HTTP method: %s", p.Method)
	}
	for _, h := range p.Headers {
		if !validHeaderToken(h.Name) {
			return newError(KindHeader, "header error: invalid header name %q", h.Name)
		}
		if !validHeaderValue(h.Value) {
			return newError(KindHeader, "header error: invalid header value for %q", h.Name)
		}
	}
	return nil
}

// Run sends the request and returns the body as text, failing with
// KindStatus if AssertStatus is non-empty and the response status is not a
// member (I7).
func (p *HttpRequest) Run(ctx context.Context, _ *engctx.Context) (*string, error) {
	var body io.Reader
	if p.Body != nil {
		body = strings.NewReader(*p.Body)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(p.Method), p.URL, body)
	if err != nil {
		return nil, wrapError(KindURL, err, "url error: %s", err)
	}
	for _, h := range p.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, otherError(err)
	}
	defer resp.Body.Close()

	if len(p.AssertStatus) > 0 && !containsInt(p.AssertStatus, resp.StatusCode) {
		return nil, newError(KindStatus, "unexpected response status: %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, otherError(err)
	}

	return textOrNil(string(content)), nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func validHeaderToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= 0x20 || r == 0x7f || strings.ContainsRune("()<>@,;:\\\"/[]?={}", r) {
			return false
		}
	}
	return true
}

func validHeaderValue(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\r' {
			return false
		}
	}
	return true
}
