package web

import "embed"

// Templates embeds the HTML templates of printable documents.
//
//go:embed templates/**/*.html
var Templates embed.FS
