package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Interviews API",
        "description": "Student screening, interview scheduling and booking",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Authentication", "description": "Staff and student sign in"},
        {"name": "Bookings", "description": "Interview seat reservations"},
        {"name": "Schedules", "description": "Bookable interview days"},
        {"name": "Status", "description": "Student screening workflow"},
        {"name": "StudentsData", "description": "Student submissions"},
        {"name": "MailingContents", "description": "Notification templates"},
        {"name": "InterviewHistory", "description": "Department attendance"},
        {"name": "InterviewResults", "description": "Interview decisions"},
        {"name": "Admin", "description": "Audit trail and counters"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Staff sign in",
                "security": [],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/student/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Student sign in",
                "security": [],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentLoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not eligible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/student/booking-login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Booking portal sign in",
                "security": [],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentLoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not eligible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Book an interview day",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookRequest"}}],
                "responses": {
                    "200": {"description": "Booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "CAPACITY_FULL or ALREADY_BOOKED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "SCHEDULE_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/export": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Export bookings",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/bookings/student/{universityId}/slip": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Download booking slip",
                "produces": ["application/pdf"],
                "parameters": [{"name": "universityId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "404": {"description": "Not found"}}
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List interview days",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create interview day",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_CAPACITY or NO_DEFAULT_TEMPLATE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "put": {
                "tags": ["Schedules"],
                "summary": "Update interview day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_CAPACITY or CAPACITY_BELOW_BOOKED_COUNT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "SCHEDULE_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete interview day",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/status/update": {
            "post": {
                "tags": ["Status"],
                "summary": "Move a student to a new status",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusUpdateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_TRANSITION, NO_DEFAULT_TEMPLATE or MISSING_EMAIL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status/resend-email": {
            "post": {
                "tags": ["Status"],
                "summary": "Resend the booking invitation",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResendEmailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "TEMPLATE_NOT_FOUND, MISSING_EMAIL or EMAIL_DELIVERY_FAILED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status/latest/{universityId}": {
            "get": {
                "tags": ["Status"],
                "summary": "Latest status of one student",
                "parameters": [{"name": "universityId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students-data": {
            "post": {
                "tags": ["StudentsData"],
                "summary": "Submit student data",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "universityId", "in": "formData", "required": true, "type": "string"},
                    {"name": "referralSource", "in": "formData", "required": true, "type": "string"},
                    {"name": "activities", "in": "formData", "type": "string"},
                    {"name": "awards", "in": "formData", "type": "string"},
                    {"name": "image", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/mailing-contents/{id}/default": {
            "put": {
                "tags": ["MailingContents"],
                "summary": "Make mailing content the default",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Updated"}}
            }
        },
        "/interview-history/mark": {
            "post": {
                "tags": ["InterviewHistory"],
                "summary": "Mark attendance at the agent's department",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/interview-results/college-summary": {
            "get": {
                "tags": ["InterviewResults"],
                "summary": "Decisions per college",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "endDate", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "StudentLoginRequest": {
            "type": "object",
            "required": ["universityId", "nationalId"],
            "properties": {"universityId": {"type": "string"}, "nationalId": {"type": "string"}}
        },
        "BookRequest": {
            "type": "object",
            "required": ["universityId", "scheduleId"],
            "properties": {"universityId": {"type": "string"}, "scheduleId": {"type": "integer"}}
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["interviewDate"],
            "properties": {
                "interviewDate": {"type": "string", "format": "date-time"},
                "capacity": {"type": "integer"},
                "location": {"type": "string"}
            }
        },
        "StatusUpdateRequest": {
            "type": "object",
            "required": ["universityId", "newStatus"],
            "properties": {
                "universityId": {"type": "string"},
                "newStatus": {"type": "string", "enum": ["New", "Pending", "Fulfilled", "Rejected", "Reserved"]}
            }
        },
        "ResendEmailRequest": {
            "type": "object",
            "required": ["universityId"],
            "properties": {"universityId": {"type": "string"}, "mailId": {"type": "integer"}}
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["universityId", "status"],
            "properties": {"universityId": {"type": "string"}, "status": {"type": "string", "enum": ["Present", "Absent"]}}
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
