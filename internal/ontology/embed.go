package ontology

import _ "embed"

// BaseTurtle is the dimd base ontology in Turtle.
//
//go:embed dimd.ttl
var BaseTurtle []byte
