// Package web embeds the viewer page so the server binary stays detached
// from the filesystem at runtime.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
