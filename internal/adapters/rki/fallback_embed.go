package rki

import _ "embed"

// fallbackTable contains the bundled static copy of the district-level
// records, used verbatim when the upstream enumeration is unavailable or
// structurally unexpected. Its date column uses a day-month-year textual
// format distinct from the live feed's epoch milliseconds.
//
//go:embed data/rki_fallback.csv
var fallbackTable []byte
