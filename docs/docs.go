// Package docs holds the Swagger document served at /swagger. It mirrors the
// @-annotations on the handlers in internal/api/handler; update both together.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/check": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Session check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.statusResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.signInResponse"}}
                }
            }
        },
        "/api/auth/sign-in/farcaster": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with Farcaster",
                "parameters": [
                    {
                        "description": "Quick Auth token and claimed FID",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.farcasterSignInRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.signInResponse"}}
                }
            }
        },
        "/api/auth/sign-in/wallet": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with a wallet signature",
                "parameters": [
                    {
                        "description": "Address, signed message and signature",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.walletSignInRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.signInResponse"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.statusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/api/users/me/wallets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user's wallets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.walletsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/api/webhook/farcaster": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhook"],
                "summary": "Farcaster mini app webhook",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.webhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.webhookResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.webhookResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.webhookResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.User": {
            "type": "object",
            "properties": {
                "avatarUrl": {"type": "string"},
                "createdAt": {"type": "string"},
                "displayName": {"type": "string"},
                "farcaster": {"$ref": "#/definitions/domain.FarcasterProfile"},
                "farcasterFid": {"type": "integer"},
                "id": {"type": "string"},
                "updatedAt": {"type": "string"},
                "wallets": {"type": "array", "items": {"$ref": "#/definitions/domain.Wallet"}}
            }
        },
        "domain.FarcasterProfile": {
            "type": "object",
            "properties": {
                "custodyAddress": {"type": "string"},
                "displayName": {"type": "string"},
                "fid": {"type": "integer"},
                "pfpUrl": {"type": "string"},
                "primaryAddress": {"type": "string"},
                "referrerFid": {"type": "integer"},
                "username": {"type": "string"},
                "verifiedAddresses": {"type": "array", "items": {"type": "string"}}
            }
        },
        "domain.Wallet": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "baseAvatar": {"type": "string"},
                "baseName": {"type": "string"},
                "createdAt": {"type": "string"},
                "ensAvatar": {"type": "string"},
                "ensName": {"type": "string"},
                "isPrimary": {"type": "boolean"},
                "updatedAt": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string", "example": "nok"}
            }
        },
        "handler.farcasterSignInRequest": {
            "type": "object",
            "required": ["fid", "token"],
            "properties": {
                "fid": {"type": "integer"},
                "referrerFid": {"type": "integer"},
                "token": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"type": "object"}},
                "status": {"type": "string"}
            }
        },
        "handler.signInResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "success": {"type": "boolean"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.statusResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.walletSignInRequest": {
            "type": "object",
            "required": ["address", "message", "signature"],
            "properties": {
                "address": {"type": "string"},
                "message": {"type": "string"},
                "signature": {"type": "string"}
            }
        },
        "handler.walletsResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "wallets": {"type": "array", "items": {"$ref": "#/definitions/domain.Wallet"}}
            }
        },
        "handler.webhookResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "success": {"type": "boolean"}
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
	Title:            "Twin API",
	Description:      "Session and identity service for the Twin mini app.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
