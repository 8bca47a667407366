package templates

import "embed"

// EmailFS holds the HTML email templates rendered by the email package.
//
//go:embed email/*
var EmailFS embed.FS
