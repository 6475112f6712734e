package apiclient

import (
	"encoding/json"
	"net/http"
)

// Envelope is the common {data, message, success, statusCode, errors}
// response shape.
type Envelope[T any] struct {
	Data       T                   `json:"data"`
	Message    string              `json:"message,omitempty"`
	Success    bool                `json:"success"`
	StatusCode int                 `json:"statusCode"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

func (e Envelope[T]) IsSuccessful() bool {
	return e.Success && e.StatusCode >= 200 && e.StatusCode < 300
}

func (e Envelope[T]) HasErrors() bool {
	return !e.Success || e.StatusCode >= 400 || len(e.Errors) > 0
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type Paginated[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DecodeEnvelope decodes raw into an Envelope. A missing statusCode defaults
// to 200.
func DecodeEnvelope[T any](raw []byte) (Envelope[T], error) {
	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, parseError(http.StatusInternalServerError, err)
	}
	if env.StatusCode == 0 {
		env.StatusCode = http.StatusOK
	}
	return env, nil
}

// DecodePaginated decodes raw into a Paginated list. Missing page and limit
// default to 1 and 10.
func DecodePaginated[T any](raw []byte) (Paginated[T], error) {
	var p Paginated[T]
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, parseError(http.StatusInternalServerError, err)
	}
	if p.Pagination.Page <= 0 {
		p.Pagination.Page = 1
	}
	if p.Pagination.Limit <= 0 {
		p.Pagination.Limit = 10
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return p, nil
}
