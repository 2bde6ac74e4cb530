// Package ports defines the boundary interfaces between the analysis core
// and its collaborators.
package ports

import "dosefit/domain/dose"

// TableReader supplies the wide dose/sample table consumed by the pipeline.
// File parsing (delimiters, sheets, headers) lives behind this boundary;
// the core only sees the structured table.
type TableReader interface {
	ReadTable() (dose.Table, error)
}
