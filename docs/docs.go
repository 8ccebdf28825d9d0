// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["ops"],
                "summary": "Readiness probe",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/signatures": {
            "get": {
                "tags": ["signatures"],
                "summary": "Signing history",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "default": 10, "description": "page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "records to skip", "name": "offset", "in": "query"},
                    {"type": "string", "default": "desc", "description": "desc or asc", "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ListResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "post": {
                "tags": ["signatures"],
                "summary": "Sign a document",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "description": "document (PDF or UTF-8 text)", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "name of the signer", "name": "claimant", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.SignResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/signatures/{id}": {
            "get": {
                "tags": ["signatures"],
                "summary": "Get a signature record",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "record id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SignatureRecord"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/signatures/{id}/proof": {
            "get": {
                "tags": ["signatures"],
                "summary": "Get the proof token",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "record id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ProofResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/signatures/{id}/proof.png": {
            "get": {
                "tags": ["signatures"],
                "summary": "Proof QR code",
                "produces": ["image/png"],
                "parameters": [{"type": "integer", "description": "record id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/signatures/{id}/document": {
            "get": {
                "tags": ["signatures"],
                "summary": "Download the signed original",
                "parameters": [{"type": "integer", "description": "record id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "307": {"description": "Temporary Redirect"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/verifications": {
            "post": {
                "tags": ["verifications"],
                "summary": "Verify a document",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "description": "document to recompute", "name": "file", "in": "formData"},
                    {"type": "integer", "description": "claimed record id", "name": "id", "in": "formData"},
                    {"type": "string", "description": "proof token", "name": "token", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "CONFIRMED", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "422": {"description": "REJECTED", "schema": {"$ref": "#/definitions/reconcile.Result"}}
                }
            }
        },
        "/verify": {
            "get": {
                "tags": ["verifications"],
                "summary": "Verify by link",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "record id", "name": "doc_id", "in": "query"},
                    {"type": "string", "description": "proof token", "name": "token", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/reconcile.Result"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "model.SignatureRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "claimant": {"type": "string"},
                "filename": {"type": "string"},
                "fingerprint": {"type": "string"},
                "signature": {"type": "string"},
                "status": {"type": "string", "enum": ["Valid", "Revoked", "Superseded"]},
                "created_at": {"type": "string"}
            }
        },
        "proof.Token": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "fp": {"type": "string"}, "sig": {"type": "string"}}
        },
        "reconcile.Result": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["CONFIRMED", "REJECTED", "NOT_FOUND"]},
                "code": {"type": "string"},
                "record_id": {"type": "integer"},
                "claimant": {"type": "string"},
                "filename": {"type": "string"},
                "signed_at": {"type": "string"}
            }
        },
        "service.ListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.SignatureRecord"}},
                "total": {"type": "integer"}
            }
        },
        "service.ProofResult": {
            "type": "object",
            "properties": {
                "proof": {"$ref": "#/definitions/proof.Token"},
                "token": {"type": "string"},
                "verify_url": {"type": "string"}
            }
        },
        "service.SignResult": {
            "type": "object",
            "properties": {
                "record": {"$ref": "#/definitions/model.SignatureRecord"},
                "fingerprint": {"type": "string"},
                "signature": {"type": "string"},
                "token": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "E-Sign Ledger API",
	Description:      "Content-addressed document signing and verification ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
