package contractbot

import "errors"

// Failures of the document pipeline. All of them are caught at the finalize
// boundary and reported to the user as a single generic message.
var (
	ErrTemplateLoad = errors.New("contract template load failed")
	ErrRender       = errors.New("contract template render failed")
	ErrCompile      = errors.New("contract compilation failed")
	ErrTransmission = errors.New("contract transmission failed")
)
