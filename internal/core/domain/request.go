package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Method is an HTTP request method.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// Idempotent reports whether m is considered safe to retry unconditionally
// on a stale-connection write/read failure. Used by Config.RetryNonIdempotent
// to gate the retry policy for non-idempotent methods (spec.md §9 Open
// Questions, "Retry on POST").
func (m Method) Idempotent() bool {
	switch m {
	case MethodGet, "HEAD", "PUT", "DELETE", "OPTIONS":
		return true
	default:
		return false
	}
}

// Header is an ordered, case-insensitive-keyed multimap of HTTP header
// fields. Insertion order is preserved for Keys() so a MessageCodec writes
// headers in the order the caller or the client set them.
type Header struct {
	keys   []string
	values map[string][]string
}

// NewHeader returns an empty Header ready for use.
func NewHeader() *Header {
	return &Header{values: make(map[string][]string)}
}

func canonKey(key string) string {
	return strings.ToLower(key)
}

// Set replaces any existing values for key with a single value, preserving
// key's original position in iteration order if it was already present.
func (h *Header) Set(key, value string) {
	ck := canonKey(key)
	if _, ok := h.values[ck]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[ck] = []string{value}
}

// Add appends value to key's value list without clearing prior values.
func (h *Header) Add(key, value string) {
	ck := canonKey(key)
	if _, ok := h.values[ck]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[ck] = append(h.values[ck], value)
}

// Get returns the first value associated with key, or "" if absent.
func (h *Header) Get(key string) string {
	vs := h.values[canonKey(key)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Has reports whether key has any value set.
func (h *Header) Has(key string) bool {
	_, ok := h.values[canonKey(key)]
	return ok
}

// Keys returns header names in first-set order, one entry per distinct key.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Body is the empty, string, or binary payload carried by a Request or
// Response, matching spec.md §3's "empty | string | binary" variant.
type Body struct {
	IsBinary bool
	Data     []byte
}

// EmptyBody returns the empty-body variant.
func EmptyBody() Body { return Body{} }

// StringBody wraps a textual payload.
func StringBody(s string) Body { return Body{Data: []byte(s)} }

// BinaryBody wraps a byte-slice payload.
func BinaryBody(b []byte) Body { return Body{IsBinary: true, Data: b} }

// Len reports the payload size in bytes, used by the codec for the
// Content-Length header it stamps when the caller has not set one.
func (b Body) Len() int { return len(b.Data) }

// Response holds the result of a completed request: status, headers, and
// body. Populated by a MessageCodec's read operation.
type Response struct {
	StatusCode int
	Reason     string
	Headers    *Header
	Body       Body
}

// CompletionFunc is the single-shot callback a Request is resolved with:
// invoked exactly once with the terminal error (nil on success), the stage
// the outcome was observed at, and the response (nil on error paths that
// never produced one).
type CompletionFunc func(err error, stage Stage, resp *Response)

// Request is the capability set a MessageCodec and an HttpClient need from
// an outbound request object, replacing the source's template+virtual-
// dispatch request hierarchy (spec.md §9 Design Notes) with a plain
// interface implemented by concrete variants.
type Request interface {
	// ID is a per-request correlation identifier, generated once at
	// construction, threaded through log lines and ClientEvents so a single
	// request's resolve/connect/write/read span can be traced end to end.
	ID() string
	Method() Method
	Target() string
	Headers() *Header
	SetHeader(key, value string)
	RequestBody() Body

	// GetResponseHeader returns the completed response's header value, or ""
	// if no response has been read yet.
	GetResponseHeader(key string) string

	// Complete invokes the request's completion callback exactly once.
	// Calling it more than once is a programmer error and is a no-op after
	// the first call.
	Complete(err error, stage Stage, resp *Response)
}

type baseRequest struct {
	id         string
	method     Method
	target     string
	headers    *Header
	body       Body
	onComplete CompletionFunc
	response   *Response
	done       bool
}

func newBaseRequest(method Method, target string, body Body, onComplete CompletionFunc) *baseRequest {
	return &baseRequest{
		id:         uuid.NewString(),
		method:     method,
		target:     target,
		headers:    NewHeader(),
		body:       body,
		onComplete: onComplete,
	}
}

func (r *baseRequest) ID() string             { return r.id }
func (r *baseRequest) Method() Method        { return r.method }
func (r *baseRequest) Target() string        { return r.target }
func (r *baseRequest) Headers() *Header      { return r.headers }
func (r *baseRequest) SetHeader(k, v string) { r.headers.Set(k, v) }
func (r *baseRequest) RequestBody() Body     { return r.body }

func (r *baseRequest) GetResponseHeader(key string) string {
	if r.response == nil || r.response.Headers == nil {
		return ""
	}
	return r.response.Headers.Get(key)
}

func (r *baseRequest) Complete(err error, stage Stage, resp *Response) {
	if r.done {
		return
	}
	r.done = true
	r.response = resp
	if r.onComplete != nil {
		r.onComplete(err, stage, resp)
	}
}

// GetRequest is a GET request with no body, the common case exercised by
// the demo driver and the majority of pool tests.
type GetRequest struct {
	*baseRequest
}

// NewGetRequest builds a GET request for target, invoking onComplete on
// terminal outcome.
func NewGetRequest(target string, onComplete CompletionFunc) *GetRequest {
	return &GetRequest{baseRequest: newBaseRequest(MethodGet, target, EmptyBody(), onComplete)}
}

// PostRequest is a POST request carrying a string or binary body.
type PostRequest struct {
	*baseRequest
}

// NewPostRequest builds a POST request for target with the given body,
// invoking onComplete on terminal outcome. Callers are expected to set
// Content-Type themselves; the client only auto-stamps Host, Connection,
// and User-Agent (spec.md §6).
func NewPostRequest(target string, body Body, onComplete CompletionFunc) *PostRequest {
	return &PostRequest{baseRequest: newBaseRequest(MethodPost, target, body, onComplete)}
}

// NewJSONPostRequest is a convenience constructor mirroring the source's
// http_json_post helper (original_source/src/http_request.h): sets
// Content-Type and Accept to application/json before the caller can
// override them.
func NewJSONPostRequest(target, json string, onComplete CompletionFunc) *PostRequest {
	r := NewPostRequest(target, StringBody(json), onComplete)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	return r
}
