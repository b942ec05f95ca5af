package plantid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanReply = `{"name": "Samambaia", "careInstructions": "Regar duas vezes por semana; manter à meia-sombra", "idealConditions": {"temperature": "18-24°C", "humidity": "60-80%", "light": "Indireta", "soil": "Rico em matéria orgânica", "other": "Evitar vento frio"}}`

func expectedResult() AnalysisResult {
	return AnalysisResult{
		Name:             "Samambaia",
		CareInstructions: "Regar duas vezes por semana; manter à meia-sombra",
		IdealConditions: IdealConditions{
			Temperature: "18-24°C",
			Humidity:    "60-80%",
			Light:       "Indireta",
			Soil:        "Rico em matéria orgânica",
			Other:       "Evitar vento frio",
		},
	}
}

func TestNormalizeCleanJSON(t *testing.T) {
	res, status := Normalize(cleanReply)

	assert.Equal(t, StatusParsed, status)
	assert.Equal(t, expectedResult(), res)
}

func TestNormalizeStripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n" + cleanReply + "\n```"},
		{"bare fence", "```\n" + cleanReply + "\n```"},
		{"multiple fences", "```json\n" + cleanReply + "\n```\n```\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, status := Normalize(tt.raw)
			assert.Equal(t, StatusParsed, status)
			assert.Equal(t, expectedResult(), res)
		})
	}
}

func TestNormalizeRemovesTrailingCommas(t *testing.T) {
	raw := `{"name": "Cacto", "careInstructions": "Pouca água", "idealConditions": {"temperature": "20-35°C", "humidity": "Baixa", "light": "Sol pleno", "soil": "Arenoso",},}`

	res, status := Normalize(raw)

	assert.Equal(t, StatusParsed, status)
	assert.Equal(t, "Cacto", res.Name)
	assert.Equal(t, "Arenoso", res.IdealConditions.Soil)
}

func TestNormalizeHandlesEmbeddedNewlines(t *testing.T) {
	raw := "{\"name\": \"Orquídea\",\n\"careInstructions\": \"Regar pouco\",\r\n\"idealConditions\": {\"temperature\": \"20-28°C\", \"humidity\": \"Alta\", \"light\": \"Indireta\", \"soil\": \"Casca de pinus\"}}"

	res, status := Normalize(raw)

	assert.Equal(t, StatusParsed, status)
	assert.Equal(t, "Orquídea", res.Name)
}

func TestNormalizeCombinedNoise(t *testing.T) {
	raw := "```json\n{\"name\": \"Alecrim\",\n\"careInstructions\": \"Sol pleno; pouca água\",\n\"idealConditions\": {\"temperature\": \"15-30°C\",\n\"humidity\": \"Média\", \"light\": \"Sol pleno\", \"soil\": \"Bem drenado\",}}\n```"

	res, status := Normalize(raw)

	assert.Equal(t, StatusParsed, status)
	assert.Equal(t, "Alecrim", res.Name)
	assert.Equal(t, "Bem drenado", res.IdealConditions.Soil)
}

func TestNormalizeSalvagesUnparseableText(t *testing.T) {
	raw := "A planta na imagem parece ser uma samambaia. Regue duas vezes por semana."

	res, status := Normalize(raw)

	assert.Equal(t, StatusSalvaged, status)
	assert.Equal(t, NameUnknown, res.Name)
	// The raw text survives untouched as care instructions.
	assert.Equal(t, raw, res.CareInstructions)
	assert.Equal(t, "Não disponível", res.IdealConditions.Temperature)
	assert.Equal(t, "Não disponível", res.IdealConditions.Humidity)
	assert.Equal(t, "Não disponível", res.IdealConditions.Light)
	assert.Equal(t, "Não disponível", res.IdealConditions.Soil)
}

func TestNormalizeSalvageKeepsOriginalNotCleaned(t *testing.T) {
	raw := "```\nnão é json,\n```"

	res, status := Normalize(raw)

	require.Equal(t, StatusSalvaged, status)
	assert.Equal(t, raw, res.CareInstructions)
}

func TestNormalizeEmptyInput(t *testing.T) {
	res, status := Normalize("")

	assert.Equal(t, StatusSalvaged, status)
	assert.Equal(t, NameUnknown, res.Name)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, status := Normalize("```json\n" + cleanReply + "\n```")
	require.Equal(t, StatusParsed, status)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	second, status := Normalize(string(encoded))
	require.Equal(t, StatusParsed, status)
	assert.Equal(t, first, second)
}

func TestNormalizeRoundTrip(t *testing.T) {
	original := expectedResult()

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	// Re-wrap the serialized object in the noise the model tends to produce.
	noisy := "```json\n" + string(encoded) + "\n```"

	res, status := Normalize(noisy)
	require.Equal(t, StatusParsed, status)
	assert.Equal(t, original, res)
}

func TestErrorResultShape(t *testing.T) {
	res := ErrorResult()

	assert.Equal(t, NameError, res.Name)
	assert.NotEmpty(t, res.CareInstructions)
	assert.Equal(t, "Não disponível", res.IdealConditions.Temperature)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "parsed", StatusParsed.String())
	assert.Equal(t, "salvaged", StatusSalvaged.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
