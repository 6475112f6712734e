package apiclient

import "net/http"

// InterceptorID identifies a registered interceptor for later removal.
type InterceptorID int

type InterceptorKind int

const (
	RequestStage InterceptorKind = iota
	ResponseStage
)

// RequestInterceptor may mutate an outgoing request after the built-in
// headers are attached. A non-nil error aborts the call.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor observes the outcome of every attempt, including the
// first attempt of a call that is retried after a 401. Exactly one of resp
// and err is non-nil. A non-nil return aborts the call with that error.
type ResponseInterceptor func(resp *Response, err *APIError) error

type stage[F any] struct {
	id   InterceptorID
	name string
	fn   F
}

// pipeline keeps stages in insertion order. It is not safe for concurrent
// use; Client guards it.
type pipeline[F any] struct {
	stages []stage[F]
}

func (p *pipeline[F]) add(id InterceptorID, name string, fn F) {
	p.stages = append(p.stages, stage[F]{id: id, name: name, fn: fn})
}

func (p *pipeline[F]) remove(id InterceptorID) bool {
	for i, s := range p.stages {
		if s.id == id {
			p.stages = append(p.stages[:i:i], p.stages[i+1:]...)
			return true
		}
	}
	return false
}

func (p *pipeline[F]) snapshot() []stage[F] {
	out := make([]stage[F], len(p.stages))
	copy(out, p.stages)
	return out
}
