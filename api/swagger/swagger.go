package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Org Ops API",
        "description": "Bulk event import for the organization operations dashboard",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "EventImport", "description": "Validate and import event batches"}
    ],
    "paths": {
        "/events/import/validate": {
            "post": {
                "tags": ["EventImport"],
                "summary": "Validate an event import batch",
                "description": "Advisory checks against current reference data. Nothing is written.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EventBatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Validation report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed or empty batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/import": {
            "post": {
                "tags": ["EventImport"],
                "summary": "Import an event batch",
                "description": "Writes every draft in one transaction. Any failed row rolls back the whole batch.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EventBatchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Batch committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed, empty or oversized batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Current term missing or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Batch rolled back, per-row outcomes in data", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/import/sheet": {
            "post": {
                "tags": ["EventImport"],
                "summary": "Preview an xlsx import sheet",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "formData", "name": "file", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Parsed drafts with validation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unreadable workbook or missing columns", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/import/reports/{id}": {
            "get": {
                "tags": ["EventImport"],
                "summary": "Download an import report",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "format", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report"},
                    "404": {"description": "Unknown or expired report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "EventDraft": {
            "type": "object",
            "required": ["title", "arn", "nature", "duration", "targetDates"],
            "properties": {
                "title": {"type": "string"},
                "arn": {"type": "string"},
                "duration": {"type": "string"},
                "nature": {"type": "string"},
                "type": {"type": "string"},
                "budget": {"type": "string", "example": "₱1,000.00"},
                "venue": {"type": "string"},
                "briefDescription": {"type": "string"},
                "goals": {"type": "string"},
                "objectives": {"type": "string"},
                "strategies": {"type": "string"},
                "measures": {"type": "string"},
                "targetDates": {"type": "array", "items": {"type": "string"}},
                "projectHeads": {"type": "array", "items": {"type": "string"}},
                "committee": {"type": "string"}
            }
        },
        "EventBatchRequest": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/EventDraft"}}
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
