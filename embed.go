package pronengine

import "embed"

//go:embed web/*
var WebFiles embed.FS
