package gateway

import "errors"

// ErrBackendUnavailable is reported when no backend client became ready
// within the wait window.
var ErrBackendUnavailable = errors.New("backend client unavailable")

// Source names the path that served a Result.
type Source string

const (
	SourceBackend  Source = "backend"
	SourceFallback Source = "fallback"
	SourceDemo     Source = "demo"
)

// Result is the uniform outcome of every gateway operation. Failures are
// reported through Success and Error, never as a Go error.
type Result[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	// TotalCount is set by paginated reads.
	TotalCount int    `json:"totalCount,omitempty"`
	Error      string `json:"error,omitempty"`
	Source     Source `json:"source"`

	err error
}

// Err returns the failure behind an unsuccessful Result, or nil.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return errors.New(r.Error)
}

func ok[T any](data T, src Source) Result[T] {
	return Result[T]{Success: true, Data: data, Source: src}
}

func fail[T any](err error, src Source) Result[T] {
	return Result[T]{Error: err.Error(), Source: src, err: err}
}
