package migrations

import "embed"

// FS はカタログ用のSQLiteマイグレーション
//
//go:embed *.sql
var FS embed.FS
