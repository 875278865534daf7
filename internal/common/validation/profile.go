package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numericFields are the profile keys the pipeline reads as numbers. Numeric
// strings are accepted there, so they are checked against the same bounds.
var numericFields = []string{"Hours_Studied", "Attendance", "Tutoring_Sessions", "Physical_Activity", "Sleep_Hours"}

// StudentProfileSchema holds the input ranges the recommendation form
// enforces. Absent keys are accepted here; the pipeline reports them after
// defaulting.
var StudentProfileSchema = MustSchema("student-profile", map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"Hours_Studied":     numberInRange(0, 24),
		"Attendance":        numberInRange(0, 100),
		"Tutoring_Sessions": map[string]interface{}{"type": []string{"integer", "null"}, "minimum": 0, "maximum": 100},
		"Physical_Activity": numberInRange(0, 7),
		"Sleep_Hours":       numberInRange(0, 24),

		"Parental_Involvement":       nullableString(),
		"Access_to_Resources":        nullableString(),
		"Extracurricular_Activities": nullableString(),
		"Motivation_Level":           nullableString(),
		"Internet_Access":            nullableString(),
		"Peer_Influence":             nullableString(),
		"Learning_Disabilities":      nullableString(),
		"Gender":                     nullableString(),
	},
	"additionalProperties": true,
})

func numberInRange(min, max float64) map[string]interface{} {
	return map[string]interface{}{
		"type":    []string{"number", "null"},
		"minimum": min,
		"maximum": max,
	}
}

func nullableString() map[string]interface{} {
	return map[string]interface{}{"type": []string{"string", "null"}}
}

// ValidateProfile checks a raw student profile against StudentProfileSchema
// and flattens any violations into one message.
func ValidateProfile(profile map[string]interface{}) error {
	result, err := StudentProfileSchema.Validate(coerceNumericStrings(profile))
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

// coerceNumericStrings returns a copy of profile with parseable, finite
// numeric strings in numeric fields replaced by their value. Anything else is
// left for the schema to reject.
func coerceNumericStrings(profile map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(profile))
	for k, v := range profile {
		out[k] = v
	}
	for _, field := range numericFields {
		str, ok := out[field].(string)
		if !ok {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		out[field] = x
	}
	return out
}
