package serving

import "strconv"

// notLoadedError signals that a prediction arrived while no model is
// loaded (before, during, or after a failed startup load).
type notLoadedError struct{ state State }

func (e notLoadedError) Error() string { return "model not loaded (state: " + string(e.state) + ")" }

// ErrModelNotLoaded constructs a model-not-loaded error for the given state.
func ErrModelNotLoaded(state State) error { return notLoadedError{state: state} }

// IsModelNotLoaded reports whether err indicates the runtime had no usable
// model for the request.
func IsModelNotLoaded(err error) bool {
	_, ok := err.(notLoadedError)
	return ok
}

// unknownClassError signals that the model produced a class index outside
// the configured class-name list: a model/schema mismatch. Fatal to the
// request, never clamped.
type unknownClassError struct{ index, numClasses int }

func (e unknownClassError) Error() string {
	return "predicted class index " + strconv.Itoa(e.index) + " outside configured " + strconv.Itoa(e.numClasses) + " class names"
}

// ErrUnknownClassIndex constructs an unknown-class-index error.
func ErrUnknownClassIndex(index, numClasses int) error {
	return unknownClassError{index: index, numClasses: numClasses}
}

// IsUnknownClassIndex reports whether err indicates a class index with no
// configured name.
func IsUnknownClassIndex(err error) bool {
	_, ok := err.(unknownClassError)
	return ok
}
