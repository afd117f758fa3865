package extract

import "errors"

// ErrMalformed is returned, usually wrapped with the offending element, when
// an expected element or attribute is missing from a page.
var ErrMalformed = errors.New("malformed page")
