package contracts

import "embed"

// SchemasFS - встроенные JSON-схемы контрактов сообщений брокера
//
//go:embed schemas/events
var SchemasFS embed.FS
