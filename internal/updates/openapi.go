package updates

import (
	"github.com/JaimeStill/nunc/pkg/docx"
	"github.com/JaimeStill/nunc/pkg/openapi"
)

type spec struct {
	Run         *openapi.Operation
	RunDocument *openapi.Operation
	Submit      *openapi.Operation
	Find        *openapi.Operation
	Document    *openapi.Operation
	Cancel      *openapi.Operation
	Schemas     map[string]*openapi.Schema
}

// Spec documents the update endpoints.
var Spec = spec{
	Run: &openapi.Operation{
		Summary:     "Update a document",
		Description: "Harmonizes the uploaded document with the described change and returns the updated text, the rendered difference and the output document.",
		RequestBody: openapi.RequestBodyMultipart("UpdateForm", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Update result", "Result"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			422: openapi.ResponseRef("UnprocessableEntity"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	RunDocument: &openapi.Operation{
		Summary:     "Update a document and download it",
		RequestBody: openapi.RequestBodyMultipart("UpdateForm", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseFile("Updated document", docx.ContentType),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			422: openapi.ResponseRef("UnprocessableEntity"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	Submit: &openapi.Operation{
		Summary:     "Submit an update task",
		Description: "Starts the update in the background. An identical submission that is still in flight returns the existing task.",
		RequestBody: openapi.RequestBodyMultipart("UpdateForm", true),
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Task accepted", "Task"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
	Find: &openapi.Operation{
		Summary: "Get a task",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Task ID"),
			openapi.QueryParam("wait", "string", "Hold the response until the task finishes, up to this duration (e.g. 30s, max 60s)", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Task snapshot", "Task"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Document: &openapi.Operation{
		Summary:    "Download the document of a resolved task",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Task ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseFile("Updated document", docx.ContentType),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Cancel: &openapi.Operation{
		Summary:    "Cancel a task",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Task ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Task cancelled"},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"UpdateForm": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"credential": {Type: "string", Description: "Generation service API key. May be sent as a bearer token instead."},
				"file":       {Type: "string", Format: "binary", Description: "Source DOCX document"},
				"change":     {Type: "string", Description: "Description of the regulatory change"},
			},
			Required: []string{"file", "change"},
		},
		"Rendering": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"ops": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"kind": {Type: "string", Enum: []any{"equal", "insert", "delete"}},
							"text": {Type: "string"},
						},
					},
				},
				"markdown":   {Type: "string"},
				"html":       {Type: "string"},
				"insertions": {Type: "integer"},
				"deletions":  {Type: "integer"},
			},
		},
		"Result": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"filename":      {Type: "string", Example: "NUNC_Update.docx"},
				"content_type":  {Type: "string"},
				"source_name":   {Type: "string"},
				"source_text":   {Type: "string"},
				"source_chars":  {Type: "integer"},
				"updated_text":  {Type: "string"},
				"diff":          openapi.SchemaRef("Rendering"),
				"document":      {Type: "string", Format: "byte", Description: "Base64 encoded DOCX"},
				"inlined_error": {Type: "boolean"},
				"duration":      {Type: "integer", Description: "Pipeline duration in nanoseconds"},
			},
		},
		"Task": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"state":        {Type: "string", Enum: []any{"pending", "running", "resolved", "failed", "cancelled"}},
				"source_name":  {Type: "string"},
				"created_at":   {Type: "string", Format: "date-time"},
				"started_at":   {Type: "string", Format: "date-time"},
				"completed_at": {Type: "string", Format: "date-time"},
				"error":        {Type: "string"},
				"error_status": {Type: "integer"},
				"archive_key":  {Type: "string"},
				"result":       openapi.SchemaRef("Result"),
			},
			Required: []string{"id", "state", "created_at"},
		},
	},
}
