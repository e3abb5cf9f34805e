// Package docs registers the API description served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Вход в систему",
                "security": [],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "login", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Поиск по всем назначениям",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "name": "type", "in": "query"},
                    {"type": "array", "items": {"type": "integer"}, "name": "type_id", "in": "query"},
                    {"type": "array", "items": {"type": "integer"}, "name": "project_id", "in": "query"},
                    {"type": "string", "name": "assignee", "in": "query"},
                    {"type": "string", "name": "name", "in": "query"},
                    {"type": "integer", "name": "milestone_id", "in": "query"},
                    {"type": "boolean", "name": "open", "in": "query"},
                    {"type": "boolean", "name": "overdue", "in": "query"},
                    {"type": "string", "name": "due_from", "in": "query"},
                    {"type": "string", "name": "due_to", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.GenericTaskPage"}}, "400": {"description": "Bad Request"}}
            }
        },
        "/assignments/count": {
            "get": {"tags": ["Assignments"], "summary": "Количество назначений", "responses": {"200": {"description": "OK"}}}
        },
        "/assignments/overdue/accounts": {
            "get": {"tags": ["Assignments"], "summary": "Аккаунты с просроченными назначениями", "responses": {"200": {"description": "OK"}}}
        },
        "/assignments/overdue/projects": {
            "get": {"tags": ["Assignments"], "summary": "Проекты с просроченными назначениями", "responses": {"200": {"description": "OK"}}}
        },
        "/assignments/{type}/{id}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Одно назначение по типу и id",
                "parameters": [
                    {"type": "string", "name": "type", "in": "path", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.GenericTask"}}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/tasks": {
            "get": {"tags": ["Tasks"], "summary": "Список задач", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Tasks"], "summary": "Создать задачу", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/tasks/{id}": {
            "get": {"tags": ["Tasks"], "summary": "Задача", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["Tasks"], "summary": "Обновить задачу", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["Tasks"], "summary": "Удалить задачу", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/tasks/{id}/detail": {
            "get": {"tags": ["Tasks"], "summary": "Карточка задачи", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/status": {
            "post": {"tags": ["Tasks"], "summary": "Сменить статус", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/tasks/{id}/toggle": {
            "post": {"tags": ["Tasks"], "summary": "Закрыть / переоткрыть задачу", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/subtasks/open-count": {
            "get": {"tags": ["Tasks"], "summary": "Число открытых подзадач", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/subtasks/close": {
            "post": {"tags": ["Tasks"], "summary": "Закрыть все подзадачи", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/assign": {
            "post": {"tags": ["Tasks"], "summary": "Назначить исполнителя", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/print": {
            "get": {"tags": ["Tasks"], "summary": "Печатная версия задачи", "produces": ["application/pdf"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "models.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "models.GenericTask": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "type_id": {"type": "integer"},
                "project_id": {"type": "integer"},
                "project_short_name": {"type": "string"},
                "s_account_id": {"type": "integer"},
                "name": {"type": "string"},
                "assignee": {"type": "string"},
                "assignee_full_name": {"type": "string"},
                "created_user": {"type": "string"},
                "due_date": {"type": "string"},
                "status": {"type": "string"},
                "is_closed": {"type": "boolean"}
            }
        },
        "services.GenericTaskPage": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.GenericTask"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "size": {"type": "integer"}
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
	Title:            "projectdesk API",
	Description:      "Project tasks, bugs, risks and milestones.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
