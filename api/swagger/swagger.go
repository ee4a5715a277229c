package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lender Relay API",
        "description": "Loan intake, admin review and relay of approved submissions to a lender endpoint.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {
            "name": "Intake",
            "description": "Public loan intake"
        },
        {
            "name": "Submissions",
            "description": "Admin review queue and relay"
        },
        {
            "name": "Exports",
            "description": "Admin downloads"
        },
        {
            "name": "Admin",
            "description": "Admin session and tooling"
        }
    ],
    "securityDefinitions": {
        "AdminCookie": {
            "type": "apiKey",
            "in": "header",
            "name": "Cookie",
            "description": "admin_token cookie issued by /admin/login"
        }
    },
    "paths": {
        "/submit": {
            "post": {
                "tags": [
                    "Intake"
                ],
                "summary": "Submit a loan intake",
                "description": "Validates and stores the submission, notifies the operator and returns the payload that would be relayed.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SubmissionData"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "500": {
                        "description": "Configuration error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Admin login",
                "consumes": [
                    "application/json",
                    "application/x-www-form-urlencoded"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AdminLoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "303": {
                        "description": "Form post redirect"
                    },
                    "401": {
                        "description": "Invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "500": {
                        "description": "ADMIN_TOKEN not configured",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/logout": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Admin logout",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/submissions": {
            "get": {
                "tags": [
                    "Submissions"
                ],
                "summary": "List submissions",
                "parameters": [
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer",
                        "maximum": 100
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/submissions/export.csv": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Export submissions as CSV",
                "produces": [
                    "text/csv"
                ],
                "responses": {
                    "200": {
                        "description": "CSV file",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/submissions/{id}": {
            "get": {
                "tags": [
                    "Submissions"
                ],
                "summary": "Get submission detail",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Submissions"
                ],
                "summary": "Edit submission data",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateSubmissionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/submissions/{id}/preview": {
            "get": {
                "tags": [
                    "Submissions"
                ],
                "summary": "Preview the relay payload",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Stored data no longer valid",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/submissions/{id}/review.pdf": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a submission review sheet",
                "produces": [
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "PDF file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/submissions/{id}/send": {
            "post": {
                "tags": [
                    "Submissions"
                ],
                "summary": "Relay a submission to the lender",
                "description": "Always submits, whatever the configured relay mode.",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Relay attempted; see data.ok",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Stored data no longer valid",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "500": {
                        "description": "Configuration error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/test-email": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Send a test notification",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "500": {
                        "description": "Configuration error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Transport failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        },
        "/admin/metrics/summary": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Metrics summary",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "AdminCookie": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "SubmissionData": {
            "type": "object",
            "required": [
                "email",
                "firstName",
                "lastName",
                "phone",
                "role",
                "fico",
                "propertyAddress",
                "propertyType",
                "purchaseOrRefi",
                "loanType",
                "preferredClosing",
                "brokerFee",
                "leadSource"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "firstName": {
                    "type": "string"
                },
                "lastName": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "fico": {
                    "type": "string"
                },
                "propertyAddress": {
                    "type": "string"
                },
                "propertyType": {
                    "type": "string"
                },
                "purchaseOrRefi": {
                    "type": "string"
                },
                "refi6Months": {
                    "type": "string"
                },
                "loanType": {
                    "type": "string"
                },
                "purchasePrice": {
                    "type": "number"
                },
                "rehabCost": {
                    "type": "number"
                },
                "fixFlipArv": {
                    "type": "number"
                },
                "rentalMonthlyIncome": {
                    "type": "number"
                },
                "rentalAnnualTaxes": {
                    "type": "number"
                },
                "rentalAnnualInsurance": {
                    "type": "number"
                },
                "rentalMonthlyHoa": {
                    "type": "number"
                },
                "rentalLeasedAtClosing": {
                    "type": "string"
                },
                "inputLandCost": {
                    "type": "number"
                },
                "inputGUCPurchaseConstructionCost": {
                    "type": "number"
                },
                "inputGUCARV": {
                    "type": "number"
                },
                "experience": {
                    "type": "string"
                },
                "preferredClosing": {
                    "type": "string"
                },
                "brokerFee": {
                    "type": "string"
                },
                "leadSource": {
                    "type": "string"
                }
            }
        },
        "UpdateSubmissionRequest": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/SubmissionData"
                }
            }
        },
        "AdminLoginRequest": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
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
