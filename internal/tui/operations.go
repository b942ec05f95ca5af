package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agrolake/internal/agro"
	"agrolake/internal/apidog"
	"agrolake/internal/docs"
	"agrolake/internal/gemini"
	"agrolake/internal/logging"
	"agrolake/internal/urlfetch"
	"agrolake/internal/weather"

	tea "github.com/charmbracelet/bubbletea"
)

// Deps carries the service clients the client invokes. The TUI talks to the
// same service layer as the MCP tools, so results match what an assistant
// would see.
type Deps struct {
	Gateway *apidog.Client
	Agro    *agro.Service
	Gemini  *gemini.Client
	Weather *weather.Client
	Docs    *docs.Manager
	Fetcher *urlfetch.Fetcher
	Logger  *logging.AppLogger
}

// operation is one invokable entry in the client menu. Operations taking an
// argument set argLabel; the client collects it through a text input first.
type operation struct {
	id             string
	title          string
	description    string
	argLabel       string
	argPlaceholder string
	run            func(ctx context.Context, deps Deps, arg string) (any, error)
}

func (o operation) Title() string       { return o.title }
func (o operation) Description() string { return o.description }
func (o operation) FilterValue() string { return o.title }

// Messages produced by async operation commands.
type (
	resultMsg struct {
		op     string
		output string
	}

	opErrorMsg struct {
		op  string
		err error
	}
)

// runOperation executes an operation off the UI goroutine and delivers the
// pretty-printed JSON result as a message.
func runOperation(op operation, deps Deps, arg string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		result, err := op.run(ctx, deps, arg)
		if err != nil {
			return opErrorMsg{op: op.title, err: err}
		}

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return opErrorMsg{op: op.title, err: fmt.Errorf("failed to encode result: %w", err)}
		}
		return resultMsg{op: op.title, output: string(encoded)}
	}
}

func operations(deps Deps) []operation {
	ops := []operation{
		{
			id:          "list_endpoints",
			title:       "📡  Endpoints da API",
			description: "Lista os endpoints disponíveis no gateway de dados agrícolas.",
			run: func(_ context.Context, d Deps, _ string) (any, error) {
				return d.Gateway.Endpoints(), nil
			},
		},
		{
			id:          "properties",
			title:       "🌾  Propriedades",
			description: "Lista todas as propriedades agrícolas cadastradas.",
			run: func(ctx context.Context, d Deps, _ string) (any, error) {
				props := d.Agro.Properties(ctx)
				return map[string]any{"properties": props, "total": len(props)}, nil
			},
		},
		{
			id:             "farmer",
			title:          "👨‍🌾  Agricultor",
			description:    "Busca os dados de um agricultor pelo identificador.",
			argLabel:       "ID do agricultor",
			argPlaceholder: "farmer-001",
			run: func(ctx context.Context, d Deps, arg string) (any, error) {
				farmer, found := d.Agro.Farmer(ctx, arg)
				if !found {
					return nil, fmt.Errorf("agricultor %s não encontrado", arg)
				}
				return farmer, nil
			},
		},
		{
			id:             "farmer_properties",
			title:          "🗺️  Propriedades do agricultor",
			description:    "Lista as propriedades pertencentes a um agricultor.",
			argLabel:       "ID do agricultor",
			argPlaceholder: "farmer-001",
			run: func(ctx context.Context, d Deps, arg string) (any, error) {
				props := d.Agro.FarmerProperties(ctx, arg)
				return map[string]any{"farmer_id": arg, "properties": props, "total": len(props)}, nil
			},
		},
		{
			id:             "weather",
			title:          "🌦️  Clima por cidade",
			description:    "Consulta as condições climáticas atuais via HG Brasil.",
			argLabel:       "Cidade (Cidade,UF)",
			argPlaceholder: "Brasilia,DF",
			run: func(ctx context.Context, d Deps, arg string) (any, error) {
				if arg == "" {
					arg = "Brasilia,DF"
				}
				report := d.Weather.ByCity(ctx, arg, "")
				if !report.OK {
					return nil, fmt.Errorf("consulta meteorológica falhou: %s", report.Error)
				}
				return report, nil
			},
		},
		{
			id:             "consult_gemini",
			title:          "✨  Consultar Gemini",
			description:    "Envia um prompt livre ao Google Gemini.",
			argLabel:       "Prompt",
			argPlaceholder: "Qual a melhor época para plantar milho no cerrado?",
			run: func(ctx context.Context, d Deps, arg string) (any, error) {
				return d.Gemini.GenerateContent(ctx, gemini.GenerateRequest{Prompt: arg})
			},
		},
		{
			id:          "gemini_models",
			title:       "🧠  Modelos Gemini",
			description: "Lista os modelos disponíveis para geração de conteúdo.",
			run: func(ctx context.Context, d Deps, _ string) (any, error) {
				models, err := d.Gemini.ListModels(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"models": models, "total": len(models)}, nil
			},
		},
		{
			id:             "fetch_url",
			title:          "🔗  Buscar conteúdo de URL",
			description:    "Busca uma URL externa e extrai o texto (com cache).",
			argLabel:       "URL",
			argPlaceholder: "https://www.embrapa.br/...",
			run: func(ctx context.Context, d Deps, arg string) (any, error) {
				content, cached, err := d.Fetcher.Fetch(ctx, arg)
				if err != nil {
					return nil, err
				}
				return map[string]any{"url": arg, "cached": cached, "content": content}, nil
			},
		},
	}

	if deps.Docs != nil {
		ops = append(ops, operation{
			id:             "search_docs",
			title:          "📚  Buscar documentação",
			description:    "Busca na base de documentação agrícola local.",
			argLabel:       "Termo de busca",
			argPlaceholder: "irrigação",
			run: func(_ context.Context, d Deps, arg string) (any, error) {
				results, total, err := d.Docs.Search(arg, "")
				if err != nil {
					return nil, err
				}
				return map[string]any{"query": arg, "results": results, "total": total}, nil
			},
		})
	}

	return ops
}
