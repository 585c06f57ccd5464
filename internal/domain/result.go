package domain

// FallbackReason explains why a component returned a substitute value.
type FallbackReason string

const (
	FallbackNone          FallbackReason = ""
	FallbackNotFound      FallbackReason = "not_found"
	FallbackUpstreamError FallbackReason = "upstream_error"
	FallbackEmptySeries   FallbackReason = "empty_series"
)

// Result is a component output together with how it was obtained.
// Value is always usable; Err holds the upstream cause when one exists.
type Result[T any] struct {
	Value    T
	Fallback FallbackReason
	Err      error
}

// UsedFallback reports whether Value is a substitute rather than upstream data.
func (r Result[T]) UsedFallback() bool {
	return r.Fallback != FallbackNone
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func fallback[T any](v T, reason FallbackReason, err error) Result[T] {
	return Result[T]{Value: v, Fallback: reason, Err: err}
}
