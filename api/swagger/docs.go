// Package swagger holds the generated OpenAPI document registration.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Instructor Workload API",
        "description": "Work activity tracking and asynchronous reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Activities", "description": "Work activity records"},
        {"name": "Reports", "description": "Asynchronous report jobs"},
        {"name": "Dashboard", "description": "Workload summaries"},
        {"name": "Directory", "description": "Courses and instructors"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/activities": {
            "get": {
                "tags": ["Activities"],
                "summary": "List activity records",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Log a work activity",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Unknown activity type"}
                }
            }
        },
        "/activities/schemas": {
            "get": {
                "tags": ["Activities"],
                "summary": "Activity type schemas",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/activities/{id}": {
            "get": {
                "tags": ["Activities"],
                "summary": "Fetch one activity record",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Activities"],
                "summary": "Replace an activity record",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Activities"],
                "summary": "Delete an activity record",
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List report jobs",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Submit a report job",
                "responses": {
                    "202": {"description": "Accepted"},
                    "422": {"description": "Unknown period tag"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Reports"],
                "summary": "Delete a report job",
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a report artifact",
                "responses": {
                    "200": {"description": "File"},
                    "409": {"description": "Report not ready"}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Workload summary",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Directory"],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Directory"],
                "summary": "List instructors",
                "responses": {
                    "200": {"description": "OK"}
                }
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
