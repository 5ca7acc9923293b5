// polydb stores named polygons in an embedded SQLite database.
//
// Usage:
//
//	# Create the table
//	polydb init --db ./polygoners.sqlite
//
//	# Insert, look up and update
//	polydb insert --name triangle --sides 3 --sides-english three
//	polydb lookup triangle
//	polydb update --name triangle --sides 3 --sides-english tri
//
//	# Run a scenario file or the built-in demo
//	polydb run ./scenarios/roundtrip.yaml
//	polydb demo --db /tmp/demo.sqlite -v
package main

import (
	"os"

	"github.com/roach88/polydb/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
