// Package migrations embeds the SQL schema migrations. They are applied
// externally in deployment; tests apply them directly from the embedded FS.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
