package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	propertiesResourceURI = "agrolake://properties"

	docResourcePrefix   = "agrolake://docs/"
	docResourceTemplate = "agrolake://docs/{category}/{name}"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		propertiesResourceURI,
		"Propriedades agrícolas",
		mcp.WithResourceDescription("Lista de propriedades agrícolas cadastradas"),
		mcp.WithMIMEType("application/json"),
	), s.handlePropertiesResource)

	if s.deps.Docs != nil {
		s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(
			docResourceTemplate,
			"Documentação agrícola",
			mcp.WithTemplateDescription("Conteúdo de um documento da base de documentação agrícola"),
			mcp.WithTemplateMIMEType("text/markdown"),
		), s.handleDocResource)
	}
}

// handlePropertiesResource serves the property list as a readable resource.
// Gateway failures yield an empty list with an error note rather than a
// protocol error, so the resource stays readable.
func (s *Server) handlePropertiesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	properties := s.deps.Agro.Properties(ctx)

	payload := map[string]any{
		"properties":  properties,
		"count":       len(properties),
		"description": "Lista de propriedades agrícolas cadastradas",
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties resource: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(encoded),
		},
	}, nil
}

// handleDocResource serves one knowledge-base document by category and name.
// The extension is optional in the URI; the content comes back as Markdown.
func (s *Server) handleDocResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	rest := strings.TrimPrefix(req.Params.URI, docResourcePrefix)
	category, name, found := strings.Cut(rest, "/")
	if !found || category == "" || name == "" {
		return nil, fmt.Errorf("docs URI must have the form %s", docResourceTemplate)
	}

	doc, err := s.deps.Docs.Get(category, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     doc.Content,
		},
	}, nil
}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt("plan_crop_season",
		mcp.WithPromptDescription("Gera um prompt para planejamento de safra agrícola."),
		mcp.WithArgument("property_name",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("Nome da propriedade"),
		),
		mcp.WithArgument("crop_type",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("Tipo de cultura/plantação"),
		),
		mcp.WithArgument("season",
			mcp.ArgumentDescription("Época da safra (padrão: próxima)"),
		),
	), s.handlePlanCropSeason)
}

func (s *Server) handlePlanCropSeason(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments

	propertyName := args["property_name"]
	cropType := args["crop_type"]
	if propertyName == "" || cropType == "" {
		return nil, fmt.Errorf("property_name and crop_type are required")
	}
	season := args["season"]
	if season == "" {
		season = "próxima"
	}

	text := fmt.Sprintf(`Planeje a safra de %[1]s para a propriedade %[2]s na %[3]s temporada.

Por favor, ajude com:
1. Análise das condições ideais para plantio de %[1]s
2. Recomendações de época de plantio baseadas em dados climáticos
3. Estimativa de recursos necessários (água, fertilizantes, mão de obra)
4. Cronograma de atividades (plantio, manutenção, colheita)
5. Projeção de rendimento esperado

Use as ferramentas disponíveis para:
- Verificar dados da propriedade %[2]s
- Analisar dados históricos similares
- Obter recomendações baseadas em dados

Forneça um plano detalhado e acionável.`, cropType, propertyName, season)

	return mcp.NewGetPromptResult(
		"Planejamento de safra",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}
