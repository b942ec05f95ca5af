package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"agrolake/internal/apidog"
	"agrolake/internal/gemini"
	"agrolake/internal/validate"

	"github.com/mark3labs/mcp-go/mcp"
)

// Every tool answers with a JSON envelope carrying a "status" field so that
// assistants can branch on success without parsing prose. Failures are error
// envelopes, never protocol errors; a broken upstream must not kill the tool
// call.

func successResult(payload map[string]any) *mcp.CallToolResult {
	payload["status"] = "success"
	return envelope(payload)
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return envelope(map[string]any{
		"status":  "error",
		"message": fmt.Sprintf(format, args...),
	})
}

func envelope(payload map[string]any) *mcp.CallToolResult {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode reply: %v", err))
	}
	return mcp.NewToolResultText(string(encoded))
}

func (s *Server) registerTools() {
	s.registerGatewayTools()
	s.registerAgroTools()
	s.registerGeminiTools()
	s.registerWeatherTools()
	s.registerDocsTools()
}

// ----------------------------------------------------------------------------
// Apidog gateway tools

func (s *Server) registerGatewayTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_api_endpoints",
		mcp.WithDescription("Lista todos os endpoints disponíveis na API de dados agrícolas."),
	), s.handleListEndpoints)

	s.mcpServer.AddTool(mcp.NewTool("get_endpoint_details",
		mcp.WithDescription("Obtém detalhes de um endpoint específico da API."),
		mcp.WithString("endpoint_id", mcp.Required(), mcp.Description("Identificador do endpoint (ex: properties_list)")),
	), s.handleEndpointDetails)

	s.mcpServer.AddTool(mcp.NewTool("execute_api_call",
		mcp.WithDescription("Executa uma chamada arbitrária contra a API de dados agrícolas via gateway."),
		mcp.WithString("endpoint_id", mcp.Required(), mcp.Description("Identificador do endpoint")),
		mcp.WithString("method", mcp.Required(), mcp.Description("Método HTTP (GET, POST, PUT, DELETE...)")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Caminho do endpoint (ex: /api/properties)")),
		mcp.WithObject("params", mcp.Description("Parâmetros de query opcionais")),
		mcp.WithObject("body", mcp.Description("Corpo JSON opcional")),
		mcp.WithObject("headers", mcp.Description("Cabeçalhos adicionais opcionais")),
	), s.handleExecuteAPICall)
}

func (s *Server) handleListEndpoints(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	endpoints := s.deps.Gateway.Endpoints()
	return successResult(map[string]any{
		"endpoints": endpoints,
		"total":     len(endpoints),
	}), nil
}

func (s *Server) handleEndpointDetails(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	endpointID, err := req.RequireString("endpoint_id")
	if err != nil {
		return errorResult("endpoint_id é obrigatório: %v", err), nil
	}
	endpointID, err = validate.ID(endpointID)
	if err != nil {
		return errorResult("endpoint_id inválido: %v", err), nil
	}

	return successResult(map[string]any{
		"endpoint": s.deps.Gateway.EndpointDetails(endpointID),
	}), nil
}

func (s *Server) handleExecuteAPICall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	endpointID, err := req.RequireString("endpoint_id")
	if err != nil {
		return errorResult("endpoint_id é obrigatório: %v", err), nil
	}
	method, err := req.RequireString("method")
	if err != nil {
		return errorResult("method é obrigatório: %v", err), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult("path é obrigatório: %v", err), nil
	}

	endpointID, err = validate.ID(endpointID)
	if err != nil {
		return errorResult("endpoint_id inválido: %v", err), nil
	}
	method, err = validate.HTTPMethod(method)
	if err != nil {
		return errorResult("método inválido: %v", err), nil
	}

	args := req.GetArguments()
	resp := s.deps.Gateway.Execute(ctx, apidog.Request{
		EndpointID: endpointID,
		Method:     method,
		Path:       path,
		Params:     asMap(args["params"]),
		Body:       asMap(args["body"]),
		Headers:    asStringMap(args["headers"]),
	})

	payload := map[string]any{
		"status_code": resp.StatusCode,
		"data":        resp.Data,
		"headers":     resp.Headers,
	}
	if resp.Err != "" {
		payload["error"] = resp.Err
		payload["status"] = "error"
		return envelope(payload), nil
	}
	return successResult(payload), nil
}

// ----------------------------------------------------------------------------
// Agricultural data tools

func (s *Server) registerAgroTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_properties",
		mcp.WithDescription("Lista todas as propriedades agrícolas cadastradas."),
	), s.handleGetProperties)

	s.mcpServer.AddTool(mcp.NewTool("create_property",
		mcp.WithDescription("Cadastra uma nova propriedade agrícola. O campo name é obrigatório."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Nome da propriedade")),
		mcp.WithString("location", mcp.Description("Localização da propriedade")),
		mcp.WithNumber("area_hectares", mcp.Description("Área em hectares")),
		mcp.WithString("crop_type", mcp.Description("Tipo de cultura principal")),
		mcp.WithString("owner", mcp.Description("Identificador do proprietário")),
	), s.handleCreateProperty)

	s.mcpServer.AddTool(mcp.NewTool("get_farmer",
		mcp.WithDescription("Obtém os dados de um agricultor pelo seu identificador."),
		mcp.WithString("farmer_id", mcp.Required(), mcp.Description("Identificador do agricultor")),
	), s.handleGetFarmer)

	s.mcpServer.AddTool(mcp.NewTool("get_farmer_properties",
		mcp.WithDescription("Lista as propriedades pertencentes a um agricultor."),
		mcp.WithString("farmer_id", mcp.Required(), mcp.Description("Identificador do agricultor")),
	), s.handleGetFarmerProperties)
}

func (s *Server) handleGetProperties(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	properties := s.deps.Agro.Properties(ctx)
	return successResult(map[string]any{
		"properties": properties,
		"total":      len(properties),
	}), nil
}

func (s *Server) handleCreateProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields, err := validate.Map(req.GetArguments(), "name")
	if err != nil {
		return errorResult("argumentos inválidos: %v", err), nil
	}

	name, _ := fields["name"].(string)
	name, err = validate.String(name, 1, 200)
	if err != nil {
		return errorResult("name inválido: %v", err), nil
	}
	fields["name"] = name

	property, err := s.deps.Agro.CreateProperty(ctx, fields)
	if err != nil {
		return errorResult("falha ao criar propriedade: %v", err), nil
	}
	return successResult(map[string]any{
		"property": property,
		"message":  "Propriedade criada com sucesso",
	}), nil
}

func (s *Server) handleGetFarmer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	farmerID, err := req.RequireString("farmer_id")
	if err != nil {
		return errorResult("farmer_id é obrigatório: %v", err), nil
	}
	farmerID, err = validate.ID(farmerID)
	if err != nil {
		return errorResult("farmer_id inválido: %v", err), nil
	}

	farmer, found := s.deps.Agro.Farmer(ctx, farmerID)
	if !found {
		return errorResult("agricultor %s não encontrado", farmerID), nil
	}
	return successResult(map[string]any{"farmer": farmer}), nil
}

func (s *Server) handleGetFarmerProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	farmerID, err := req.RequireString("farmer_id")
	if err != nil {
		return errorResult("farmer_id é obrigatório: %v", err), nil
	}
	farmerID, err = validate.ID(farmerID)
	if err != nil {
		return errorResult("farmer_id inválido: %v", err), nil
	}

	properties := s.deps.Agro.FarmerProperties(ctx, farmerID)
	return successResult(map[string]any{
		"farmer_id":  farmerID,
		"properties": properties,
		"total":      len(properties),
	}), nil
}

// ----------------------------------------------------------------------------
// Gemini tools

func (s *Server) registerGeminiTools() {
	s.mcpServer.AddTool(mcp.NewTool("consult_gemini",
		mcp.WithDescription("Consulta o Google Gemini AI com um prompt livre, opcionalmente com contexto."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Pergunta ou prompt para o Gemini")),
		mcp.WithString("context", mcp.Description("Contexto adicional anteposto ao prompt")),
		mcp.WithNumber("temperature", mcp.Description("Temperatura de geração (0.0 a 1.0)")),
	), s.handleConsultGemini)

	s.mcpServer.AddTool(mcp.NewTool("analyze_with_gemini",
		mcp.WithDescription("Analisa dados agrícolas com o Gemini e responde uma pergunta sobre eles."),
		mcp.WithObject("data", mcp.Required(), mcp.Description("Dados agrícolas para análise")),
		mcp.WithString("question", mcp.Required(), mcp.Description("Pergunta sobre os dados")),
	), s.handleAnalyzeWithGemini)

	s.mcpServer.AddTool(mcp.NewTool("list_gemini_models",
		mcp.WithDescription("Lista os modelos Gemini que suportam geração de conteúdo."),
	), s.handleListGeminiModels)
}

func (s *Server) geminiAvailable() *mcp.CallToolResult {
	if s.deps.Gemini == nil || !s.deps.Gemini.Available() {
		return errorResult("Gemini não está disponível: configure GOOGLE_API_KEY")
	}
	return nil
}

func (s *Server) handleConsultGemini(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if unavailable := s.geminiAvailable(); unavailable != nil {
		return unavailable, nil
	}

	prompt, err := req.RequireString("prompt")
	if err != nil {
		return errorResult("prompt é obrigatório: %v", err), nil
	}
	prompt, err = validate.String(prompt, 1, 10000)
	if err != nil {
		return errorResult("prompt inválido: %v", err), nil
	}

	genReq := gemini.GenerateRequest{
		Prompt:  prompt,
		Context: req.GetString("context", ""),
	}
	if temp, ok := req.GetArguments()["temperature"].(float64); ok {
		genReq.Temperature = &temp
	}

	result, err := s.deps.Gemini.GenerateContent(ctx, genReq)
	if err != nil {
		return errorResult("falha na consulta ao Gemini: %v", err), nil
	}
	return successResult(map[string]any{
		"prompt":   result.Prompt,
		"response": result.Response,
		"model":    result.Model,
	}), nil
}

func (s *Server) handleAnalyzeWithGemini(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if unavailable := s.geminiAvailable(); unavailable != nil {
		return unavailable, nil
	}

	question, err := req.RequireString("question")
	if err != nil {
		return errorResult("question é obrigatório: %v", err), nil
	}
	data, ok := req.GetArguments()["data"]
	if !ok || data == nil {
		return errorResult("data é obrigatório"), nil
	}

	result, err := s.deps.Gemini.AnalyzeData(ctx, data, question)
	if err != nil {
		return errorResult("falha na análise com Gemini: %v", err), nil
	}
	return successResult(map[string]any{
		"question": question,
		"analysis": result.Response,
		"model":    result.Model,
	}), nil
}

func (s *Server) handleListGeminiModels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if unavailable := s.geminiAvailable(); unavailable != nil {
		return unavailable, nil
	}

	models, err := s.deps.Gemini.ListModels(ctx)
	if err != nil {
		return errorResult("falha ao listar modelos: %v", err), nil
	}
	return successResult(map[string]any{
		"models": models,
		"total":  len(models),
	}), nil
}

// ----------------------------------------------------------------------------
// Weather tools

func (s *Server) registerWeatherTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_weather",
		mcp.WithDescription("Obtém dados meteorológicos de uma cidade brasileira via HG Brasil (formato Cidade,UF)."),
		mcp.WithString("city_name", mcp.Description("Cidade no formato \"Cidade,UF\" (padrão: Brasilia,DF)")),
		mcp.WithString("api_key", mcp.Description("Chave da API HG Brasil para esta chamada")),
	), s.handleGetWeather)

	s.mcpServer.AddTool(mcp.NewTool("get_weather_by_coordinates",
		mcp.WithDescription("Obtém dados meteorológicos por coordenadas GPS, útil para propriedades rurais."),
		mcp.WithNumber("latitude", mcp.Required(), mcp.Description("Latitude (ex: -15.7942)")),
		mcp.WithNumber("longitude", mcp.Required(), mcp.Description("Longitude (ex: -47.8822)")),
		mcp.WithString("api_key", mcp.Description("Chave da API HG Brasil para esta chamada")),
	), s.handleGetWeatherByCoordinates)
}

func (s *Server) handleGetWeather(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cityName, err := validate.String(req.GetString("city_name", "Brasilia,DF"), 1, 100)
	if err != nil {
		return errorResult("city_name inválido: %v", err), nil
	}

	report := s.deps.Weather.ByCity(ctx, cityName, req.GetString("api_key", ""))
	if !report.OK {
		return errorResult("falha na consulta meteorológica: %s", report.Error), nil
	}
	return successResult(map[string]any{"weather": report}), nil
}

func (s *Server) handleGetWeatherByCoordinates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	latitude, err := req.RequireFloat("latitude")
	if err != nil {
		return errorResult("latitude é obrigatória: %v", err), nil
	}
	longitude, err := req.RequireFloat("longitude")
	if err != nil {
		return errorResult("longitude é obrigatória: %v", err), nil
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return errorResult("coordenadas fora do intervalo válido"), nil
	}

	report := s.deps.Weather.ByCoordinates(ctx, latitude, longitude, req.GetString("api_key", ""))
	if !report.OK {
		return errorResult("falha na consulta meteorológica: %s", report.Error), nil
	}
	return successResult(map[string]any{"weather": report}), nil
}

// ----------------------------------------------------------------------------
// Documentation tools

func (s *Server) registerDocsTools() {
	if s.deps.Docs != nil {
		s.mcpServer.AddTool(mcp.NewTool("buscar_documentacao",
			mcp.WithDescription("Busca na base de documentação agrícola local (arquivos Markdown)."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Termo de busca")),
			mcp.WithString("category", mcp.Description("Categoria para restringir a busca")),
		), s.handleSearchDocs)
	}

	if s.deps.Fetcher != nil {
		s.mcpServer.AddTool(mcp.NewTool("buscar_conteudo_url",
			mcp.WithDescription("Busca e extrai o conteúdo textual de uma URL externa (com cache)."),
			mcp.WithString("url", mcp.Required(), mcp.Description("URL a ser buscada")),
		), s.handleFetchURL)
	}
}

func (s *Server) handleSearchDocs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return errorResult("query é obrigatória: %v", err), nil
	}
	query, err = validate.String(query, 1, 500)
	if err != nil {
		return errorResult("query inválida: %v", err), nil
	}

	results, total, err := s.deps.Docs.Search(query, req.GetString("category", ""))
	if err != nil {
		return errorResult("falha na busca de documentação: %v", err), nil
	}
	return successResult(map[string]any{
		"query":   query,
		"results": results,
		"total":   total,
	}), nil
}

func (s *Server) handleFetchURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return errorResult("url é obrigatória: %v", err), nil
	}

	content, cached, err := s.deps.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return errorResult("falha ao buscar URL: %v", err), nil
	}
	return successResult(map[string]any{
		"url":     rawURL,
		"content": content,
		"cached":  cached,
		"length":  len(content),
	}), nil
}

// ----------------------------------------------------------------------------
// Argument coercion helpers

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asStringMap(value any) map[string]string {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
