package catalog

import (
	"errors"

	"github.com/hennyi-ai/sales-engine/internal/observability"
)

// ErrEmptyCatalog indicates that no usable records survived formatting.
// Callers surface it as "no data available" rather than failing the chat.
var ErrEmptyCatalog = errors.New("catalog: no usable records")

// NoDataMessage is the excerpt handed to the prompt assembler when the
// catalog is empty.
const NoDataMessage = "No car data available"

// Store holds the canonical description list for the currently loaded
// catalog. Loading replaces the previous list wholesale; descriptions and
// any embedding matrix derived from them must always be rebuilt together.
type Store struct {
	logger       *observability.Logger
	descriptions []string
}

// NewStore creates an empty catalog store.
func NewStore(logger *observability.Logger) *Store {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Store{logger: logger.WithComponent("catalog")}
}

// Load formats records into canonical descriptions, replacing the current
// set. Records missing required fields are skipped and logged as data
// quality issues; they are never defaulted. Returns the number of usable
// descriptions and ErrEmptyCatalog when none survive.
func (s *Store) Load(records []Record) (int, error) {
	descriptions := make([]string, 0, len(records))
	skipped := 0

	for i, r := range records {
		desc, err := Describe(r)
		if err != nil {
			skipped++
			s.logger.Warn().
				Int("record", i).
				Err(err).
				Msg("skipping unformattable record")
			continue
		}
		descriptions = append(descriptions, desc)
	}

	s.descriptions = descriptions

	s.logger.Info().
		Int("loaded", len(descriptions)).
		Int("skipped", skipped).
		Msg("catalog loaded")

	if len(descriptions) == 0 {
		s.logger.Warn().Msg("no valid car documents to load")
		return 0, ErrEmptyCatalog
	}
	return len(descriptions), nil
}

// Descriptions returns a copy of the canonical description list.
func (s *Store) Descriptions() []string {
	out := make([]string, len(s.descriptions))
	copy(out, s.descriptions)
	return out
}

// Len returns the number of loaded descriptions.
func (s *Store) Len() int { return len(s.descriptions) }

// Empty reports whether the store holds no usable records.
func (s *Store) Empty() bool { return len(s.descriptions) == 0 }
