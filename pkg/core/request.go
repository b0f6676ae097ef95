package core

import (
	"fmt"
	"strconv"
)

// Params carries operation arguments from a venue client to its protocol.
type Params map[string]any

// Request is a venue-neutral description of one public REST call. Weight is
// the number of rate limiter tokens the call consumes.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   Params            `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Weight  int               `json:"weight"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(Params),
		Headers: make(map[string]string),
		Weight:  1,
	}
}

func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetWeight(weight int) *Request {
	r.Weight = weight
	return r
}

// QueryValues renders Query as strings ready for the URL. Nil values are
// skipped.
func (r *Request) QueryValues() map[string]string {
	values := make(map[string]string, len(r.Query))
	for k, v := range r.Query {
		switch val := v.(type) {
		case nil:
		case string:
			values[k] = val
		case int:
			values[k] = strconv.Itoa(val)
		case bool:
			values[k] = strconv.FormatBool(val)
		default:
			values[k] = fmt.Sprint(val)
		}
	}
	return values
}
