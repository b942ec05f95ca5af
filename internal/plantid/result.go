// Package plantid turns free-text model output about a plant photo into the
// fixed AnalysisResult shape the API promises to its callers.
//
// Generative models that are asked for "JSON only" still wrap their answer in
// code fences, sprinkle newlines inside strings, or leave trailing commas.
// Normalize repairs those artifacts and strict-parses the remainder; when the
// text is beyond repair it salvages the raw output into a well-formed result
// instead of failing. Callers therefore always receive a serializable value.
package plantid

// Sentinel values used by the salvage and failure paths. The product surface
// is Portuguese, so the sentinels are too.
const (
	NameUnknown = "Desconhecido"
	NameError   = "Erro"

	conditionPlaceholder = "Não disponível"
	errorInstructions    = "Não foi possível analisar a imagem. Verifique sua conexão e tente novamente."
)

// IdealConditions describes the growing conditions for an identified plant.
// All fields are free text in a fixed human language; nothing is enumerated.
type IdealConditions struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Light       string `json:"light"`
	Soil        string `json:"soil"`
	Other       string `json:"other,omitempty"`
}

// AnalysisResult is the fixed JSON shape describing a plant-identification
// outcome. It has no identity and no lifecycle beyond a single request:
// constructed from model output, serialized to the caller, discarded.
type AnalysisResult struct {
	Name             string          `json:"name"`
	CareInstructions string          `json:"careInstructions"`
	IdealConditions  IdealConditions `json:"idealConditions"`
}

// Status signals which of the three normalization outcomes produced a result.
type Status int

const (
	// StatusParsed means the model output parsed cleanly after cleanup.
	StatusParsed Status = iota
	// StatusSalvaged means parsing failed and the raw text was preserved in
	// CareInstructions so no information is lost.
	StatusSalvaged
	// StatusFailed means the model call itself failed and a fixed error
	// result was produced without any model text.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusSalvaged:
		return "salvaged"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SalvagedResult builds a well-formed result from unparsable model output.
// The raw text is kept verbatim in CareInstructions.
func SalvagedResult(raw string) AnalysisResult {
	return AnalysisResult{
		Name:             NameUnknown,
		CareInstructions: raw,
		IdealConditions:  placeholderConditions(),
	}
}

// ErrorResult builds the fixed degraded result returned when the upstream
// model call fails entirely (network error or empty response).
func ErrorResult() AnalysisResult {
	return AnalysisResult{
		Name:             NameError,
		CareInstructions: errorInstructions,
		IdealConditions:  placeholderConditions(),
	}
}

func placeholderConditions() IdealConditions {
	return IdealConditions{
		Temperature: conditionPlaceholder,
		Humidity:    conditionPlaceholder,
		Light:       conditionPlaceholder,
		Soil:        conditionPlaceholder,
	}
}
