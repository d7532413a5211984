package workspace

import "errors"

var errNoFrame = errors.New("workspace: frame not available")
