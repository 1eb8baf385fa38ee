// Package model defines the table representations shared by every tabsift
// component.
//
// # Raw Tables
//
// A [RawTable] is the grid handed over by an extraction step: rows of
// optional text cells, row 0 being the header. Extraction may also supply
// [MergeRegion] descriptors naming rectangular ranges that share a label.
// A [Candidate] bundles both with the table's [Provenance].
//
// # Header Promotion
//
// [PromoteHeader] turns a raw table into a [Table] with named [Column]
// values:
//
//   - blank header cells are named "Column_{n}" (1-based) and marked Synthetic
//   - duplicate names are suffixed "_1", "_2", ... within the table
//   - names starting with the metadata prefix mark metadata columns
//
// Rows whose first cell starts with the metadata prefix are metadata rows.
// Metadata columns and rows are never scored, classified or aggregated.
//
// # Classified Tables
//
// A [ClassifiedTable] is a validated [Table] annotated with its numeric
// columns, numeric rows, quality score and [TableType].
package model
