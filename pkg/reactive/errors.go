package reactive

import "errors"

// ErrNotComposite is returned by Wrap when the value is neither a raw
// container nor a wrapper.
var ErrNotComposite = errors.New("reactive: value cannot be made reactive")
