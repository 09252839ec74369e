package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Faculty Timetable API",
        "description": "Weekly scheduling, conflict resolution, and teaching hour ledger for the faculty portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Calendar", "description": "Academic years, terms, and scheduling weeks"},
        {"name": "Schedule", "description": "Weekly grid, assignment, and conflict checks"},
        {"name": "Overlays", "description": "Cancellations, unavailability, availability marks"},
        {"name": "Ledger", "description": "Teaching hour projections and allocations"},
        {"name": "Advancement", "description": "End-of-term student sweep"}
    ],
    "paths": {
        "/years": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List academic years",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List terms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/active": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Get the active term",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active term"}
                }
            }
        },
        "/terms/{id}/weeks": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List weeks of a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Start a new scheduling week",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartWeekRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Start date is not a Sunday"},
                    "409": {"description": "An active week already exists"}
                }
            }
        },
        "/weeks/{id}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Get one week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/{id}/type": {
            "put": {
                "tags": ["Calendar"],
                "summary": "Change a week's type",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetWeekTypeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Another week is already active"}
                }
            }
        },
        "/terms/{id}/weeks/active": {
            "delete": {
                "tags": ["Calendar"],
                "summary": "Stop the active week of a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Stopped"}
                }
            }
        },
        "/terms/{id}/reset-weeks": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Reset a term's weeks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetTermWeeksRequest"}}
                ],
                "responses": {
                    "201": {"description": "Term reset with a fresh first week"},
                    "412": {"description": "Confirmation flag missing"}
                }
            }
        },
        "/doctors/{id}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get a doctor's weekly schedule with overlays",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "weekId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/slots": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Assign or remove a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ManageScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "Removed"},
                    "400": {"description": "Invalid payload or missing room"},
                    "409": {"description": "Cancelled, unavailable, or conflicting cell"}
                }
            }
        },
        "/schedule/check": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Pre-check a candidate assignment without committing",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Check result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cancellations/days": {
            "post": {
                "tags": ["Overlays"],
                "summary": "Cancel a doctor's day for one week",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DayCancellationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            },
            "delete": {
                "tags": ["Overlays"],
                "summary": "Remove a day cancellation",
                "parameters": [
                    {"name": "weekId", "in": "query", "required": true, "type": "string"},
                    {"name": "doctorId", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/cancellations/slots": {
            "post": {
                "tags": ["Overlays"],
                "summary": "Cancel one slot for a doctor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotCancellationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            },
            "delete": {
                "tags": ["Overlays"],
                "summary": "Remove a slot cancellation",
                "parameters": [
                    {"name": "weekId", "in": "query", "required": true, "type": "string"},
                    {"name": "doctorId", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "slot", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/unavailability": {
            "post": {
                "tags": ["Overlays"],
                "summary": "Record an unavailability window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnavailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/unavailability/{id}": {
            "delete": {
                "tags": ["Overlays"],
                "summary": "Delete an unavailability window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/doctors/{id}/unavailability": {
            "get": {
                "tags": ["Overlays"],
                "summary": "List a doctor's unavailability windows",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability": {
            "post": {
                "tags": ["Overlays"],
                "summary": "Add or remove an availability mark",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AvailabilityRequest"}}
                ],
                "responses": {
                    "204": {"description": "Applied"}
                }
            }
        },
        "/doctors/{id}/availability": {
            "get": {
                "tags": ["Overlays"],
                "summary": "List a doctor's availability marks for a week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "weekId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/hours": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Get done and remaining hours for a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/doctors": {
            "put": {
                "tags": ["Ledger"],
                "summary": "Replace the set of doctors teaching a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetCourseDoctorsRequest"}}
                ],
                "responses": {
                    "204": {"description": "Replaced"}
                }
            }
        },
        "/courses/{id}/allocations": {
            "put": {
                "tags": ["Ledger"],
                "summary": "Replace a course's per-doctor hour split",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAllocationsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Allocations do not sum to the course total"}
                }
            }
        },
        "/courses/{id}/doctor-hours": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Per-doctor hour breakdown for a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/doctors/{id}/hours": {
            "get": {
                "tags": ["Ledger"],
                "summary": "A doctor's hour totals across courses",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/advance": {
            "post": {
                "tags": ["Advancement"],
                "summary": "Advance students at end of term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvanceStudentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-student results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid mode or empty action list"}
                }
            }
        }
    },
    "definitions": {
        "StartWeekRequest": {
            "type": "object",
            "required": ["term_id", "start_date"],
            "properties": {
                "term_id": {"type": "string"},
                "label": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "type": {"type": "string", "enum": ["ACTIVE", "RAMADAN"]},
                "replace": {"type": "boolean"}
            }
        },
        "SetWeekTypeRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["PREP", "ACTIVE", "RAMADAN", "STOPPED"]}
            }
        },
        "ResetTermWeeksRequest": {
            "type": "object",
            "required": ["start_date"],
            "properties": {
                "start_date": {"type": "string", "format": "date-time"},
                "confirm": {"type": "boolean"}
            }
        },
        "AssignSlotRequest": {
            "type": "object",
            "required": ["week_id", "doctor_id", "day", "slot", "course_id"],
            "properties": {
                "week_id": {"type": "string"},
                "doctor_id": {"type": "string"},
                "day": {"type": "string", "enum": ["SUN", "MON", "TUE", "WED", "THU"]},
                "slot": {"type": "integer", "minimum": 1, "maximum": 5},
                "course_id": {"type": "string"},
                "room_code": {"type": "string"},
                "counts_towards_hours": {"type": "boolean"},
                "extra_minutes": {"type": "integer", "enum": [0, 15, 30, 45]}
            }
        },
        "ManageScheduleRequest": {
            "type": "object",
            "required": ["action", "week_id", "doctor_id", "day", "slot"],
            "properties": {
                "action": {"type": "string", "enum": ["assign", "remove"]},
                "week_id": {"type": "string"},
                "doctor_id": {"type": "string"},
                "day": {"type": "string"},
                "slot": {"type": "integer"},
                "course_id": {"type": "string"},
                "room_code": {"type": "string"},
                "counts_towards_hours": {"type": "boolean"},
                "extra_minutes": {"type": "integer"}
            }
        },
        "DayCancellationRequest": {
            "type": "object",
            "required": ["week_id", "doctor_id", "day"],
            "properties": {
                "week_id": {"type": "string"},
                "doctor_id": {"type": "string"},
                "day": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "SlotCancellationRequest": {
            "type": "object",
            "required": ["week_id", "doctor_id", "day", "slot"],
            "properties": {
                "week_id": {"type": "string"},
                "doctor_id": {"type": "string"},
                "day": {"type": "string"},
                "slot": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "UnavailabilityRequest": {
            "type": "object",
            "required": ["doctor_id", "start_at", "end_at"],
            "properties": {
                "doctor_id": {"type": "string"},
                "start_at": {"type": "string", "format": "date-time"},
                "end_at": {"type": "string", "format": "date-time"},
                "reason": {"type": "string"}
            }
        },
        "AvailabilityRequest": {
            "type": "object",
            "required": ["week_id", "doctor_id", "day", "slot", "action"],
            "properties": {
                "week_id": {"type": "string"},
                "doctor_id": {"type": "string"},
                "day": {"type": "string"},
                "slot": {"type": "integer"},
                "action": {"type": "string", "enum": ["add", "remove"]}
            }
        },
        "SetCourseDoctorsRequest": {
            "type": "object",
            "required": ["doctor_ids"],
            "properties": {
                "doctor_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SetAllocationsRequest": {
            "type": "object",
            "required": ["allocations"],
            "properties": {
                "allocations": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "doctor_id": {"type": "string"},
                            "hours": {"type": "number"}
                        }
                    }
                }
            }
        },
        "AdvanceStudentsRequest": {
            "type": "object",
            "required": ["mode"],
            "properties": {
                "mode": {"type": "string", "enum": ["AUTO", "CUSTOM"]},
                "actions": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "student_id": {"type": "string"},
                            "action": {"type": "string", "enum": ["ADVANCE", "REPEAT", "GRADUATE"]},
                            "to_year": {"type": "integer"}
                        }
                    }
                }
            }
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
