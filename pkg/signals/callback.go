package signals

import "fmt"

// CallbackError wraps a failure raised by a caller supplied pick handler.
type CallbackError struct {
	Entity string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("lookup: pick callback for %q failed: %v", e.Entity, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// Guard runs fn, converting a returned error or a panic into a CallbackError
// so a broken handler cannot abort the commit that invoked it.
func Guard(entity string, fn func() error) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &CallbackError{Entity: entity, Err: cause}
		}
	}()
	if cbErr := fn(); cbErr != nil {
		return &CallbackError{Entity: entity, Err: cbErr}
	}
	return nil
}
