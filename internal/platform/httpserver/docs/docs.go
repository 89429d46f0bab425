// Package docs holds the generated OpenAPI document served at /swagger/doc.json.
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
        "/v1/registry/leaderboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Top-K leaderboard",
                "parameters": [
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/registry/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Registry stats",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/registry/subjects": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Register a subject",
                "parameters": [
                    {
                        "type": "string",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/registry/subjects/{subject_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Get a subject",
                "parameters": [
                    {
                        "type": "integer",
                        "name": "subject_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/registry/subjects/{subject_id}/content": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Update subject content",
                "parameters": [
                    {
                        "type": "string",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "subject_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/registry/subjects/{subject_id}/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Cast a vote",
                "parameters": [
                    {
                        "type": "string",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "subject_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"},
                    "429": {"description": "Too Many Requests"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Galleria Voting Registry API",
	Description:      "Weighted voting registry for gallery subjects.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
