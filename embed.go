package duosite

import "embed"

// EmbeddedAssets contains the scripts shipped with the site:
// duosite.js (likes and comments) and dashboard.js (engagement chart).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
