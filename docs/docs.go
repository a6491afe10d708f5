// Package docs registers the OpenAPI document served under /swagger.
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
        "/checkout/attempts": {
            "post": {
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Start checkout",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Attempt"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/checkout/attempts/{attemptID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Get checkout attempt",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Attempt id", "name": "attemptID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Attempt"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/checkout/attempts/{attemptID}/online": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Pay online",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Attempt id", "name": "attemptID", "in": "path", "required": true},
                    {"description": "Total shown to the shopper", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.PaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OnlineCheckout"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/checkout/attempts/{attemptID}/cod": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Pay cash on delivery",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Attempt id", "name": "attemptID", "in": "path", "required": true},
                    {"description": "Total shown to the shopper", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.PaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Attempt"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/payments/sessions/{sessionID}/events": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Report payment outcome",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Payment session id", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Attempt"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Order status", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Maximum number of orders", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Orders"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/orders/{orderID}/tracking": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Track order",
                "parameters": [
                    {"type": "string", "description": "Signed-in user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Order id", "name": "orderID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tracking.View"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "response.ErrorBody": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "message": {"type": "string"},
                "fallbackOffered": {"type": "boolean"},
                "redirect": {"type": "string"}
            }
        },
        "dto.PaymentRequest": {
            "type": "object",
            "properties": {
                "expectedTotal": {"type": "string", "example": "160.00"}
            }
        },
        "dto.Attempt": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "state": {"type": "string", "enum": ["idle", "calculating", "awaiting_gateway", "succeeded", "failed", "cancelled", "persisting", "completed", "blocked"]},
                "items": {"type": "array", "items": {"type": "object"}},
                "subtotal": {"type": "string"},
                "shippingCharge": {"type": "string"},
                "total": {"type": "string"},
                "currency": {"type": "string"},
                "paymentId": {"type": "string"},
                "sessionId": {"type": "string"},
                "order": {"type": "object"},
                "notice": {"type": "object", "properties": {"level": {"type": "string"}, "message": {"type": "string"}}},
                "navigation": {"type": "object", "properties": {"path": {"type": "string"}, "afterMs": {"type": "integer"}}},
                "fallbackOffered": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.OnlineCheckout": {
            "type": "object",
            "properties": {
                "attempt": {"$ref": "#/definitions/dto.Attempt"},
                "session": {
                    "type": "object",
                    "properties": {
                        "id": {"type": "string"},
                        "options": {"type": "object"},
                        "expiresAt": {"type": "string"}
                    }
                }
            }
        },
        "dto.Orders": {
            "type": "object",
            "properties": {
                "orders": {"type": "array", "items": {"type": "object"}}
            }
        },
        "tracking.View": {
            "type": "object",
            "properties": {
                "orderId": {"type": "string"},
                "orderNumber": {"type": "string"},
                "status": {"type": "string"},
                "placedAt": {"type": "string"},
                "paymentBadge": {"type": "string"},
                "paymentNote": {"type": "string"},
                "total": {"type": "string"},
                "estimatedDelivery": {"type": "string"},
                "timeline": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Checkout service API",
	Description:      "Checkout, payment and order tracking for the storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
