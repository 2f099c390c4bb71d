package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SHS Registrar API",
        "description": "Senior high school enrollment and registrar management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session management"},
        {"name": "Enrollments", "description": "Enrollment application lifecycle"},
        {"name": "Transferees", "description": "Transferee credential evaluation"},
        {"name": "Sections", "description": "Sections, capacity and rosters"},
        {"name": "Schedules", "description": "Weekly schedule slots"},
        {"name": "Reports", "description": "Dashboards, exports and certificates"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "schoolYearId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Submit enrollment application",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate application or LRN"},
                    "412": {"description": "Enrollment closed"}
                }
            }
        },
        "/enrollments/{id}/approve": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Approve enrollment into a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveEnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"},
                    "412": {"description": "Section full"}
                }
            }
        },
        "/enrollments/{id}/reject": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Reject enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/return": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Return enrollment for revision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/evaluate": {
            "post": {
                "tags": ["Transferees"],
                "summary": "Evaluate transferee credentials",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateTransfereeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not a transferee application"}
                }
            }
        },
        "/enrollments/{id}/cor": {
            "get": {
                "tags": ["Reports"],
                "summary": "Certificate of registration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Student not enrolled"}
                }
            }
        },
        "/sections/{id}/roster": {
            "get": {
                "tags": ["Sections"],
                "summary": "Section roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Create schedule slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Faculty schedule conflict"}
                }
            }
        },
        "/reports/summary": {
            "get": {
                "tags": ["Reports"],
                "summary": "Enrollment summary",
                "parameters": [
                    {"name": "schoolYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "SubmitEnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "school_year_id": {"type": "string"},
                "grade_level": {"type": "integer"},
                "enrollment_type": {"type": "string"},
                "lrn": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "strand_preference_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["school_year_id", "grade_level", "strand_preference_ids"]
        },
        "ApproveEnrollmentRequest": {
            "type": "object",
            "properties": {
                "section_id": {"type": "string"},
                "direct": {"type": "boolean"},
                "review_notes": {"type": "string"},
                "override_reason": {"type": "string"}
            },
            "required": ["section_id"]
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "EvaluateTransfereeRequest": {
            "type": "object",
            "properties": {
                "previous_school_name": {"type": "string"},
                "last_grade_level": {"type": "integer"},
                "last_school_year": {"type": "string"},
                "recommended_strand_id": {"type": "string"},
                "recommended_grade_level": {"type": "integer"},
                "credited_subjects": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CreditedSubjectInput"}
                }
            },
            "required": ["previous_school_name", "last_grade_level", "recommended_strand_id", "recommended_grade_level"]
        },
        "CreditedSubjectInput": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "semester": {"type": "string"},
                "equivalent_grade": {"type": "number"}
            },
            "required": ["subject_id", "semester", "equivalent_grade"]
        },
        "ScheduleSlotRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "faculty_id": {"type": "string"},
                "section_id": {"type": "string"},
                "school_year_id": {"type": "string"},
                "day_of_week": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "semester": {"type": "string"},
                "room": {"type": "string"}
            },
            "required": ["subject_id", "section_id", "school_year_id", "day_of_week", "start_time", "end_time", "semester"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
