package model

import (
	einoModel "github.com/cloudwego/eino/components/model"
)

// JSONSchema 结构化输出的响应结构，各适配器负责转换为自己的格式
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
}

// StructuredOptions 适配器专属选项
type StructuredOptions struct {
	SchemaName string
	Schema     *JSONSchema
}

// WithResponseSchema 要求模型返回符合 schema 的 JSON
func WithResponseSchema(name string, schema *JSONSchema) einoModel.Option {
	return einoModel.WrapImplSpecificOptFn(func(o *StructuredOptions) {
		o.SchemaName = name
		o.Schema = schema
	})
}

func getStructuredOptions(opts ...einoModel.Option) *StructuredOptions {
	return einoModel.GetImplSpecificOptions(&StructuredOptions{}, opts...)
}

// AgendaSchema 议程生成的响应结构：presenter 可选，其余字段必填
func AgendaSchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"meetingTitle": {Type: "string", Description: "A concise and professional title for the meeting."},
			"summary":      {Type: "string", Description: "A brief 2-3 sentence summary of the meeting goals."},
			"stakeholders": {
				Type: "array",
				Items: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"name": {Type: "string"},
						"role": {Type: "string"},
					},
					Required: []string{"name", "role"},
				},
			},
			"agendaItems": {
				Type: "array",
				Items: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"title":           {Type: "string"},
						"description":     {Type: "string", Description: "Actionable details about what will be discussed."},
						"durationMinutes": {Type: "integer", Description: "Estimated time in minutes."},
						"presenter":       {Type: "string", Description: "Suggested presenter based on context, or 'All'"},
					},
					Required: []string{"title", "description", "durationMinutes"},
				},
			},
		},
		Required: []string{"meetingTitle", "summary", "stakeholders", "agendaItems"},
	}
}
