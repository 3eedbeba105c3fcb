package db

import "embed"

// cacheSchemas holds the cache table migrations.
//
//go:embed migrations/*.sql
var cacheSchemas embed.FS
