// Package migrations embebe los .sql para correrlos vía golang-migrate
// (source iofs) desde cmd/migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
