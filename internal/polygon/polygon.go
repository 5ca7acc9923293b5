package polygon

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MinSides is the smallest side count that forms a closed polygon.
const MinSides = 3

var (
	// ErrEmptyName is returned by Validate when the name is blank.
	ErrEmptyName = errors.New("polygon name is required")

	// ErrTooFewSides is returned by Validate when Sides < MinSides.
	ErrTooFewSides = errors.New("polygon needs at least 3 sides")
)

// Polygon is a named shape with a side count and its word form.
type Polygon struct {
	ID           int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string `json:"name" yaml:"name"`
	Sides        int    `json:"sides" yaml:"sides"`
	SidesEnglish string `json:"sides_english" yaml:"sides_english"`
}

// Table is the name of the table polygons are stored in.
const Table = "polygons"

// Column names, in table order.
const (
	ColumnID           = "pkey"
	ColumnName         = "name"
	ColumnSides        = "sides"
	ColumnSidesEnglish = "sides_english"
)

var (
	// Columns lists every persisted column in table order.
	Columns = []string{ColumnID, ColumnName, ColumnSides, ColumnSidesEnglish}

	// InsertColumns are the columns an insert writes; pkey is assigned by SQLite.
	InsertColumns = []string{ColumnName, ColumnSides, ColumnSidesEnglish}

	// UpdateColumns are the columns an update overwrites. The name is the match key.
	UpdateColumns = []string{ColumnSides, ColumnSidesEnglish}
)

// New returns a polygon with a normalized name and no surrogate key.
func New(name string, sides int, sidesEnglish string) Polygon {
	return Polygon{
		Name:         NormalizeName(name),
		Sides:        sides,
		SidesEnglish: sidesEnglish,
	}
}

// NormalizeName returns the NFC form of name.
// Surrounding whitespace is kept; "square" and " square" are different keys.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Validate checks the invariants callers are expected to uphold before insert.
// The store itself does not call Validate.
func (p Polygon) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Sides < MinSides {
		return fmt.Errorf("%w: got %d", ErrTooFewSides, p.Sides)
	}
	return nil
}

// ScanDest returns pointers to p's fields in Columns order.
func (p *Polygon) ScanDest() []any {
	return []any{&p.ID, &p.Name, &p.Sides, &p.SidesEnglish}
}

// InsertValues returns p's values in InsertColumns order, name normalized.
func (p Polygon) InsertValues() []any {
	return []any{NormalizeName(p.Name), p.Sides, p.SidesEnglish}
}

// UpdateValues returns p's values in UpdateColumns order.
func (p Polygon) UpdateValues() []any {
	return []any{p.Sides, p.SidesEnglish}
}

// String renders the polygon for text output.
func (p Polygon) String() string {
	return fmt.Sprintf("%s: %d sides (%s)", p.Name, p.Sides, p.SidesEnglish)
}
