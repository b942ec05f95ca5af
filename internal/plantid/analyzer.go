package plantid

import (
	"context"
	"strings"

	"agrolake/internal/logging"
)

// visionPrompt is the fixed instruction sent with every image. The model is
// told to answer with bare JSON; Normalize handles the cases where it does
// not comply.
const visionPrompt = `Identifique a planta na imagem e responda APENAS com um objeto JSON válido, sem nenhum texto adicional, no formato:
{"name": "nome popular da planta", "careInstructions": "instruções de cuidado separadas por ponto e vírgula", "idealConditions": {"temperature": "faixa de temperatura ideal", "humidity": "umidade ideal", "light": "luminosidade ideal", "soil": "tipo de solo ideal", "other": "outras observações"}}
Responda em português.`

// VisionModel is the slice of the model client the analyzer needs. Keeping it
// an interface lets tests inject doubles without touching the environment.
type VisionModel interface {
	GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// Analyzer runs the image-analysis flow: one model call, one normalization.
type Analyzer struct {
	model  VisionModel
	logger *logging.AppLogger
}

func NewAnalyzer(model VisionModel, logger *logging.AppLogger) *Analyzer {
	return &Analyzer{model: model, logger: logger}
}

// Analyze sends the image to the model and coerces the reply into an
// AnalysisResult. Every exit path returns a structurally valid result:
// StatusFailed when the model call errors or replies with nothing,
// StatusParsed or StatusSalvaged otherwise. It never returns a Go error;
// the status is the whole error taxonomy at this boundary.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) (AnalysisResult, Status) {
	text, err := a.model.GenerateVision(ctx, visionPrompt, image, mimeType)
	if err != nil {
		a.logger.Error("model call failed", "error", err)
		return ErrorResult(), StatusFailed
	}
	if strings.TrimSpace(text) == "" {
		a.logger.Error("model returned empty response")
		return ErrorResult(), StatusFailed
	}

	res, status := Normalize(text)
	if status == StatusSalvaged {
		a.logger.Warn("model output did not parse, salvaged raw text", "length", len(text))
	}
	return res, status
}
