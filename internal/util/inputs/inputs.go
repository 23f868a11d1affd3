package inputs

// NormalizeInputArray collapses a single-or-multiple option pair into one slice.
//
// A non-zero single value takes precedence and is returned on its own. Otherwise
// multiple is returned unchanged. When neither is set the result is an empty,
// non-nil slice so callers can range over it or hand it to a provider input.
func NormalizeInputArray[T comparable](single T, multiple []T) []T {
	var zero T
	if single != zero {
		return []T{single}
	}
	if multiple != nil {
		return multiple
	}
	return []T{}
}
