package uploads

import "errors"

var errInvalidText = errors.New("content is not valid text")
