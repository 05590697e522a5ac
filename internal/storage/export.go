package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pmacsim/internal/engine"
)

type ExportData struct {
	ID      string               `json:"id"`
	Seed    int64                `json:"seed"`
	Dt      float64              `json:"dt"`
	SimTime float64              `json:"sim_time"`
	Steps   int                  `json:"steps"`
	Series  map[string][]float64 `json:"series"`
	Metrics engine.Metrics       `json:"metrics"`
}

// ExportJSON writes metadata and every named series as a single document.
func ExportJSON(w io.Writer, meta *RunMetadata, series *engine.Series) error {
	data := ExportData{
		ID:      meta.ID,
		Seed:    meta.Seed,
		Steps:   series.Len(),
		Series:  make(map[string][]float64, len(engine.Columns)),
		Metrics: meta.Metrics,
	}
	if meta.Config != nil {
		data.Dt = meta.Config.Dt
		data.SimTime = meta.Config.SimTime
	}
	for _, name := range engine.Columns {
		data.Series[name] = series.Column(name)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
