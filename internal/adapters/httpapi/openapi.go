package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
)

func jsonContent(schemaRef string) map[string]any {
	return map[string]any{
		"application/json": map[string]any{
			"schema": map[string]any{"$ref": schemaRef},
		},
	}
}

func jsonResponse(description, schemaRef string) map[string]any {
	return map[string]any{"description": description, "content": jsonContent(schemaRef)}
}

func jsonBody(schemaRef string) map[string]any {
	return map[string]any{"required": true, "content": jsonContent(schemaRef)}
}

// handleOpenAPI décrit l'API exposée au popup, au lecteur et au compagnon navigateur.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	ok := func(ref string) map[string]any { return jsonResponse("OK", ref) }
	errResp := jsonResponse("Error", "#/components/schemas/Error")

	str := map[string]any{"type": "string"}
	boolean := map[string]any{"type": "boolean"}
	strList := map[string]any{"type": "array", "items": str}

	doc := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Berriz playback API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"OpenAPIDocument": map[string]any{"type": "object", "additionalProperties": true},
				"Error": map[string]any{
					"type":       "object",
					"properties": map[string]any{"error": str},
					"required":   []any{"error"},
				},
				"HLSVariant": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"width":       map[string]any{"type": "integer"},
						"height":      map[string]any{"type": "integer"},
						"playbackUrl": str,
					},
				},
				"EntryError": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message":          str,
						"code":             str,
						"type":             str,
						"status":           map[string]any{"type": "integer"},
						"isMissingCookies": boolean,
						"fanclubOnly":      boolean,
						"missingCookies":   strList,
					},
					"required": []any{"message", "isMissingCookies", "fanclubOnly"},
				},
				"Record": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"isDrm":       map[string]any{"type": "boolean", "nullable": true},
						"hls":         strList,
						"dash":        strList,
						"hlsVariants": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/components/schemas/HLSVariant"}},
						"title":       str,
						"timestamp":   map[string]any{"type": "integer", "format": "int64", "description": "Unix ms"},
						"error":       map[string]any{"$ref": "#/components/schemas/EntryError"},
					},
					"required": []any{"isDrm", "hls", "dash", "hlsVariants", "title", "timestamp"},
				},
				"CacheResponse": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"cache": map[string]any{
							"type":        "array",
							"description": "Paires [id, record] dans l'ordre d'insertion/mise à jour.",
							"items": map[string]any{
								"type":     "array",
								"minItems": 2,
								"maxItems": 2,
								"items":    map[string]any{},
							},
						},
					},
					"required": []any{"cache"},
				},
				"SuccessResponse": map[string]any{
					"type":       "object",
					"properties": map[string]any{"success": boolean, "message": str},
					"required":   []any{"success"},
				},
				"Status": map[string]any{
					"type":       "object",
					"properties": map[string]any{"isActive": boolean},
					"required":   []any{"isActive"},
				},
				"FetchStats": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"limit":    map[string]any{"type": "integer"},
						"inFlight": map[string]any{"type": "integer"},
						"waiting":  map[string]any{"type": "integer"},
					},
				},
				"Settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"isExtensionActive":    boolean,
						"maxConcurrentFetches": map[string]any{"type": "integer", "minimum": 1},
					},
				},
				"Message": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action": map[string]any{
							"type": "string",
							"enum": []any{"getPlaybackCache", "clearPlaybackCache", "deletePlaybackCacheItem", "getExtensionStatus", "setExtensionStatus"},
						},
						"id":       str,
						"uuid":     str,
						"isActive": boolean,
					},
					"required": []any{"action"},
				},
				"NavigationEvent": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tabId": map[string]any{"type": "integer"},
						"url":   str,
					},
					"required": []any{"url"},
				},
				"NavigationResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"state":   map[string]any{"type": "string", "enum": []any{"idle", "resolved", "cache_miss"}},
						"mediaId": str,
						"kind":    map[string]any{"type": "string", "enum": []any{"replay", "media"}},
					},
					"required": []any{"state"},
				},
				"CookieSync": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"cookies": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":       "object",
								"properties": map[string]any{"name": str, "value": str},
								"required":   []any{"name", "value"},
							},
						},
					},
				},
				"CookieState": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"domain":  str,
						"cookies": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
						"missing": strList,
					},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health":       map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/version":      map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/openapi.json": map[string]any{"get": map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/OpenAPIDocument")}}},
			"/api/v1/events":       map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE"}}}},
			"/api/v1/messages": map[string]any{
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/Message"),
					"responses":   map[string]any{"200": map[string]any{"description": "Réponse propre à l'action"}, "400": errResp, "500": errResp},
				},
			},
			"/api/v1/cache": map[string]any{
				"get":    map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/CacheResponse")}},
				"delete": map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/SuccessResponse")}},
			},
			"/api/v1/cache/{id}": map[string]any{
				"delete": map[string]any{
					"parameters": []any{map[string]any{"name": "id", "in": "path", "required": true, "schema": str}},
					"responses": map[string]any{
						"200": ok("#/components/schemas/SuccessResponse"),
						"404": ok("#/components/schemas/SuccessResponse"),
					},
				},
			},
			"/api/v1/status": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/Status")}},
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/Status"),
					"responses":   map[string]any{"200": ok("#/components/schemas/Status"), "400": errResp, "500": errResp},
				},
			},
			"/api/v1/fetches": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/FetchStats")}},
			},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/Settings"), "500": errResp}},
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/Settings"),
					"responses":   map[string]any{"200": ok("#/components/schemas/Settings"), "400": errResp, "500": errResp},
				},
			},
			"/api/v1/navigation": map[string]any{
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/NavigationEvent"),
					"responses": map[string]any{
						"200": ok("#/components/schemas/NavigationResult"),
						"202": ok("#/components/schemas/NavigationResult"),
						"400": errResp,
						"503": errResp,
					},
				},
			},
			"/api/v1/cookies": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": ok("#/components/schemas/CookieState"), "500": errResp}},
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/CookieSync"),
					"responses":   map[string]any{"200": ok("#/components/schemas/CookieState"), "400": errResp, "500": errResp},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, doc)
}
