package pipeline

// DefaultValues fills categorical fields the recommendation form does not
// ask for. Only absent keys are filled; an explicit null is left for the
// imputer.
var DefaultValues = map[string]interface{}{
	"Motivation_Level":      "Medium",
	"Internet_Access":       "Yes",
	"Peer_Influence":        "Neutral",
	"Learning_Disabilities": "No",
	"Gender":                "Female",
}

// ApplyDefaults returns a copy of record with every absent default key set.
// The input map is not modified.
func ApplyDefaults(record Record) Record {
	out := make(Record, len(record)+len(DefaultValues))
	for k, v := range record {
		out[k] = v
	}
	for k, v := range DefaultValues {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}
