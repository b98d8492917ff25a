package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/ghstats/internal/model"
)

// JSONFormatter writes the aggregate document unchanged.
type JSONFormatter struct {
	Pretty bool
}

// Format outputs the aggregate as JSON
func (f *JSONFormatter) Format(agg *model.Aggregate, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(agg)
}
