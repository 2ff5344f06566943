// Package catalog turns raw vehicle inventory records into the canonical
// descriptions the retrieval pipeline embeds and ranks.
package catalog

import (
	"fmt"
	"strings"
)

// Record is a single vehicle inventory row: field name to value.
// Records are immutable once loaded; a reload replaces the whole set.
type Record map[string]any

// descField describes one segment of the canonical description.
type descField struct {
	Key    string
	Label  string
	Prefix string
	Suffix string
}

// descFields is the fixed field order of the canonical description.
// Records missing any of these fields are dropped, not defaulted.
var descFields = []descField{
	{Key: "Type", Label: "Type"},
	{Key: "Stock", Label: "Stock"},
	{Key: "VIN", Label: "VIN"},
	{Key: "Year", Label: "Year"},
	{Key: "Make", Label: "Make"},
	{Key: "Model", Label: "Model"},
	{Key: "ModelNumber", Label: "ModelNumber"},
	{Key: "ExteriorColor", Label: "Exterior Color"},
	{Key: "InteriorColor", Label: "Interior Color"},
	{Key: "Transmission", Label: "Transmission"},
	{Key: "Miles", Label: "Mileage", Suffix: "mi"},
	{Key: "SellingPrice", Label: "Selling Price", Prefix: "$"},
	{Key: "Options", Label: "Options"},
	{Key: "Style_Description", Label: "Style Description"},
	{Key: "Engine_Block_Type", Label: "Engine Block Type"},
	{Key: "Engine_Aspiration_Type", Label: "Engine Aspiration Type"},
	{Key: "Engine_Description", Label: "Engine Description"},
	{Key: "Transmission_Description", Label: "Transmission Description"},
	{Key: "Drivetrain", Label: "Drivetrain"},
	{Key: "Fuel_Type", Label: "Fuel Type"},
	{Key: "CityMPG", Label: "City MPG", Suffix: "mpg"},
	{Key: "HighwayMPG", Label: "Highway MPG", Suffix: "mpg"},
	{Key: "EPAClassification", Label: "EPA Classification"},
	{Key: "Wheelbase_Code", Label: "Wheelbase Code"},
	{Key: "MarketClass", Label: "Market Class"},
	{Key: "PassengerCapacity", Label: "Passenger Capacity"},
	{Key: "EngineDisplacementCubicInches", Label: "Engine Displacement"},
}

// RequiredFields returns the field names a record must carry, in
// canonical description order.
func RequiredFields() []string {
	out := make([]string, len(descFields))
	for i, f := range descFields {
		out[i] = f.Key
	}
	return out
}

// MissingFieldError reports the first required field absent from a record.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

// Describe renders a record into its canonical description. The result is
// the single string embedded into the index and interpolated into prompts.
// A record missing any required field yields a MissingFieldError; the
// caller decides whether to skip or fail.
func Describe(r Record) (string, error) {
	var b strings.Builder
	for i, f := range descFields {
		v, ok := r[f.Key]
		if !ok || v == nil {
			return "", &MissingFieldError{Field: f.Key}
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s%v%s", f.Label, f.Prefix, v, f.Suffix)
	}
	return b.String(), nil
}
