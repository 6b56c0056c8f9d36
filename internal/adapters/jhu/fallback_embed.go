package jhu

import (
	"embed"
	"fmt"

	"github.com/okian/epifetch/internal/domain/model"
)

// fallbackFS holds the bundled static snapshot of the three global series,
// used verbatim whenever the live download fails.
//
//go:embed data/*.csv
var fallbackFS embed.FS

func fallbackCSV(ds model.Dataset) ([]byte, error) {
	return fallbackFS.ReadFile(fmt.Sprintf("data/%s_global_fallback.csv", string(ds)))
}
