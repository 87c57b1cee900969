// Package migrations embeds the MySQL schema for goose.
package migrations

import "embed"

// FS holds all *.sql migration files; pass it to goose.NewProvider.
//
//go:embed *.sql
var FS embed.FS
