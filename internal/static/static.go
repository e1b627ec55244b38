package static

import _ "embed"

// APIMd contains the embedded API usage notes served at /api.md.
//
//go:embed api.md
var APIMd string
