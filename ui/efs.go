// Package ui embeds the templates and static assets of the web application.
package ui

import "embed"

//go:embed "static" "templates"
var Files embed.FS
