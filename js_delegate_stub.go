//go:build !js_eval

package attrs

import "errors"

// JSGetter is unavailable without the js_eval build tag; the returned getter
// always fails.
func JSGetter(expression string, opts ...JSDelegateOption) Getter {
	_ = applyJSDelegateOptions(opts)
	return func(*Txn) (any, error) {
		return nil, errors.New("attrs: js delegate requires the js_eval build tag")
	}
}

func jsDelegateAvailable() bool {
	return false
}
