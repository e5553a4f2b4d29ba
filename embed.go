package posteditor

import "embed"

// EmbeddedAssets contains the static pages served by the editor:
// RateLimitError.html
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
