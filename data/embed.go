package data

import (
	_ "embed"
)

//go:embed initdb/postgis/001-extension.sql
var InitdbPostGISExtension string

//go:embed initdb/postgis/002-indexes.sql
var InitdbPostGISIndexes string
