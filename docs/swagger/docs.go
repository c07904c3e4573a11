// Package swagger holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/server/server.go -o docs/swagger
package swagger

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
        "/chat/conversation": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Chat API"],
                "summary": "Get my conversation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/chatres.MyConversationResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}}
                }
            }
        },
        "/chat/conversations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Chat Admin API"],
                "summary": "List conversations",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/chatres.SummaryResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}}
                }
            }
        },
        "/chat/conversations/{id}/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Chat Admin API"],
                "summary": "List conversation messages",
                "parameters": [
                    {"type": "integer", "description": "Conversation ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Return messages after this message id", "name": "after", "in": "query"},
                    {"type": "integer", "description": "Maximum number of messages", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/chatres.MessageResponse"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}}
                }
            }
        },
        "/chat/conversations/{id}/close": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Chat Admin API"],
                "summary": "Close a conversation",
                "parameters": [
                    {"type": "integer", "description": "Conversation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/chatres.ConversationResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}}
                }
            }
        },
        "/chat/ws": {
            "get": {
                "tags": ["Chat Realtime"],
                "summary": "Open the realtime chat channel",
                "parameters": [
                    {"type": "string", "description": "Bearer token for browser clients", "name": "token", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/responses.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "chatres.ConversationResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "chatres.MessageResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "conversation_id": {"type": "integer"},
                "sender_id": {"type": "string"},
                "sender_role": {"type": "string"},
                "content": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "chatres.MyConversationResponse": {
            "type": "object",
            "properties": {
                "conversation": {"$ref": "#/definitions/chatres.ConversationResponse"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/chatres.MessageResponse"}}
            }
        },
        "chatres.SummaryResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "user_name": {"type": "string"},
                "user_email": {"type": "string"},
                "last_message": {"type": "string"},
                "user_message_count": {"type": "integer"}
            }
        },
        "responses.ErrorDetail": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "type": {"type": "string"},
                "code": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "responses.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/responses.ErrorDetail"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8190",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Chat API",
	Description:      "Live support chat between rental customers and the admin team.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
