// Package polygon defines the single entity persisted by polydb.
//
// A Polygon is identified by its Name (the natural key). The surrogate
// key ID is assigned by the store and carries no application meaning.
//
// # Column Mapping
//
// The mapping from fields to columns is declared statically: Columns,
// InsertColumns and UpdateColumns name the columns, and ScanDest,
// InsertValues and UpdateValues list the fields in the same order. The
// store builds every statement from these lists. Nothing discovers fields
// by reflection; adding a field means extending the lists, the three
// methods and schema.sql.
//
// # Name Normalization
//
// Names are NFC-normalized at the storage boundary so that composed and
// decomposed spellings of the same text resolve to the same row.
package polygon
