package db

import "embed"

// Migrations holds the goose SQL migrations of the triple store schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS
