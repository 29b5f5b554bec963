package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/episode-owl/internal/httpjson"
)

// handleOpenAPI renvoie un document OpenAPI minimal de l'API v1.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	ref := func(name string) map[string]any {
		return map[string]any{"$ref": "#/components/schemas/" + name}
	}
	jsonBody := func(description string, schema map[string]any) map[string]any {
		return map[string]any{
			"description": description,
			"content": map[string]any{
				"application/json": map[string]any{"schema": schema},
			},
		}
	}
	arrayOf := func(name string) map[string]any {
		return map[string]any{"type": "array", "items": ref(name)}
	}
	jsonErr := jsonBody("Error", ref("Error"))

	position := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"numbering": map[string]any{"type": "string", "enum": []any{"season_episode", "absolute"}},
			"season":    map[string]any{"type": "integer"},
			"episode":   map[string]any{"type": "integer"},
		},
		"required": []any{"numbering", "episode"},
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "episode-owl API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": map[string]any{"type": "string"},
						"code":  map[string]any{"type": "string", "enum": []any{"transport", "not_found", "conflict", "state_corruption", "invalid_selector", "internal"}},
					},
					"required": []any{"error"},
				},
				"Position": position,
				"Settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"maxNotifications":        map[string]any{"type": "integer", "minimum": 0},
						"archiveWatchedAfterDays": map[string]any{"type": "integer"},
						"dateFormat":              map[string]any{"type": "string"},
						"includeSpecials":         map[string]any{"type": "string", "enum": []any{"smart", "all", "none"}},
					},
				},
				"Candidate": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":      map[string]any{"type": "integer", "format": "int64"},
						"name":    map[string]any{"type": "string"},
						"year":    map[string]any{"type": "integer"},
						"status":  map[string]any{"type": "string"},
						"network": map[string]any{"type": "string"},
						"score":   map[string]any{"type": "number", "format": "double"},
					},
					"required": []any{"id", "name"},
				},
				"TrackedShow": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":            map[string]any{"type": "integer", "format": "int64"},
						"name":          map[string]any{"type": "string"},
						"numbering":     map[string]any{"type": "string", "enum": []any{"season_episode", "absolute"}},
						"lastSeen":      ref("Position"),
						"lastCheckedAt": map[string]any{"type": "string", "format": "date-time"},
						"addedAt":       map[string]any{"type": "string", "format": "date-time"},
					},
				},
				"TimelineEntry": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index":        map[string]any{"type": "integer", "description": "1-based index among unwatched entries"},
						"discoveredOn": map[string]any{"type": "string", "format": "date-time"},
						"showId":       map[string]any{"type": "integer", "format": "int64"},
						"showName":     map[string]any{"type": "string"},
						"position":     ref("Position"),
						"code":         map[string]any{"type": "string", "example": "S05E16"},
						"title":        map[string]any{"type": "string"},
						"airDate":      map[string]any{"type": "string", "format": "date-time"},
						"watched":      map[string]any{"type": "boolean"},
						"line":         map[string]any{"type": "string"},
					},
				},
				"CheckReport": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"runId":    map[string]any{"type": "string"},
						"date":     map[string]any{"type": "string", "format": "date-time"},
						"added":    map[string]any{"type": "integer"},
						"archived": map[string]any{"type": "integer"},
						"results":  map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
					},
				},
				"MarkResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"updated": map[string]any{"type": "integer"},
						"ignored": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
					},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health":  map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/version": map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/events":  map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "text/event-stream"}}}},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonBody("OK", ref("Settings"))}},
			},
			"/api/v1/shows": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonBody("OK", arrayOf("TrackedShow")), "500": jsonErr}},
				"post": map[string]any{
					"requestBody": map[string]any{"required": true, "content": map[string]any{"application/json": map[string]any{"schema": ref("Candidate")}}},
					"responses":   map[string]any{"201": jsonBody("Created", map[string]any{"type": "object"}), "400": jsonErr, "409": jsonErr, "502": jsonErr},
				},
			},
			"/api/v1/shows/search": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{"required": true, "content": map[string]any{"application/json": map[string]any{"schema": map[string]any{
						"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}, "required": []any{"query"},
					}}}},
					"responses": map[string]any{"200": jsonBody("OK", arrayOf("Candidate")), "404": jsonErr, "502": jsonErr},
				},
			},
			"/api/v1/shows/{ref}": map[string]any{
				"delete": map[string]any{
					"parameters": []any{map[string]any{"name": "ref", "in": "path", "required": true, "schema": map[string]any{"type": "string"}}},
					"responses":  map[string]any{"200": jsonBody("OK", ref("TrackedShow")), "404": jsonErr},
				},
			},
			"/api/v1/check": map[string]any{
				"post": map[string]any{"responses": map[string]any{"200": jsonBody("OK", ref("CheckReport")), "500": jsonErr}},
			},
			"/api/v1/timeline": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "all", "in": "query", "schema": map[string]any{"type": "boolean"}},
						map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}},
					},
					"responses": map[string]any{"200": jsonBody("OK", arrayOf("TimelineEntry")), "400": jsonErr},
				},
			},
			"/api/v1/timeline/watched": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{"required": true, "content": map[string]any{"application/json": map[string]any{"schema": map[string]any{
						"type": "object", "properties": map[string]any{"selector": map[string]any{"type": "string", "example": "1,3-5"}},
					}}}},
					"responses": map[string]any{"200": jsonBody("OK", ref("MarkResult")), "400": jsonErr},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
