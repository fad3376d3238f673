package migrations

import "embed"

// FS миграции goose, встроенные в бинарник
//
//go:embed *.sql
var FS embed.FS
