package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Edu Resource Portal API",
        "description": "Educational resource catalog with search, downloads and analytics",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Resources", "description": "Catalog listing, filtering and admin management"},
        {"name": "Search", "description": "Relevance search, suggestions and recent queries"},
        {"name": "Downloads", "description": "Signed download grants, batch runs and history"},
        {"name": "Favorites", "description": "Starred resources"},
        {"name": "Analytics", "description": "Client event ingestion and queue counters"},
        {"name": "Store", "description": "Namespaced key-value store maintenance"},
        {"name": "Auth", "description": "Admin authentication"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/resources": {
            "get": {
                "tags": ["Resources"],
                "summary": "List catalog resources",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "grade", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "tags", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/resources/options": {
            "get": {
                "tags": ["Resources"],
                "summary": "Distinct filter axis values",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/resources/{id}": {
            "get": {
                "tags": ["Resources"],
                "summary": "Get one resource",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/search": {
            "get": {
                "tags": ["Search"],
                "summary": "Search the catalog",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/search/suggestions": {
            "get": {
                "tags": ["Search"],
                "summary": "Autocomplete suggestions",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/search/recent": {
            "get": {
                "tags": ["Search"],
                "summary": "Recent search queries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Search"],
                "summary": "Clear recent search queries",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/api/v1/downloads/{id}": {
            "post": {
                "tags": ["Downloads"],
                "summary": "Request a signed download token",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/downloads/{id}/size": {
            "get": {
                "tags": ["Downloads"],
                "summary": "Probe the remote size of a resource file",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/downloads/file/{token}": {
            "get": {
                "tags": ["Downloads"],
                "summary": "Serve a file for a valid signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/api/v1/downloads/batch": {
            "post": {
                "tags": ["Downloads"],
                "summary": "Download multiple resources sequentially",
                "responses": {
                    "200": {"description": "Per-item report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/downloads/history": {
            "get": {
                "tags": ["Downloads"],
                "summary": "Recorded downloads, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Downloads"],
                "summary": "Clear the download history",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/api/v1/downloads/history/export": {
            "get": {
                "tags": ["Downloads"],
                "summary": "Export the download history as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File stream"}
                }
            }
        },
        "/api/v1/favorites": {
            "get": {
                "tags": ["Favorites"],
                "summary": "List starred resources",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Favorites"],
                "summary": "Unstar everything",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/api/v1/favorites/{id}/toggle": {
            "post": {
                "tags": ["Favorites"],
                "summary": "Star or unstar a resource",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/analytics/events": {
            "post": {
                "tags": ["Analytics"],
                "summary": "Queue an analytics event",
                "responses": {
                    "202": {"description": "Queued"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalItems": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
