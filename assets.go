// Package coffeehouse embeds the frontend templates and static assets.
package coffeehouse

import "embed"

// In dev mode the server reads frontend/ from disk instead, so template and
// stylesheet edits show up without a rebuild.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
