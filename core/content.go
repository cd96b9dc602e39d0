package core

import "encoding/base64"

// Role identifies the author of a Content in a conversation.
type Role string

const (
	// RoleUser marks content authored by the calling application.
	RoleUser Role = "user"
	// RoleModel marks content authored by the model.
	RoleModel Role = "model"
)

// Content is an ordered list of parts forming one conversation turn.
// Role may be empty for single-turn requests and system instructions.
type Content struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single piece of content. Exactly one field is set; the wire
// format distinguishes parts by which key is present.
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
}

// Blob carries raw media bytes, base64-encoded on the wire.
type Blob struct {
	// MimeType is the IANA media type of the data, e.g. "image/png".
	MimeType string `json:"mimeType"`
	// Data is the base64-encoded payload.
	Data string `json:"data"`
}

// FunctionCall is a request from the model to invoke a declared function.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse returns the result of a function invocation to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// FileData references previously uploaded media by URI.
type FileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// Text creates a text part.
func Text(text string) Part {
	return Part{Text: text}
}

// Data creates an inline media part from raw bytes.
func Data(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// FileURI creates a part referencing an uploaded file by URI.
func FileURI(mimeType, uri string) Part {
	return Part{FileData: &FileData{MimeType: mimeType, FileURI: uri}}
}

// FunctionResult creates a part carrying a function invocation result.
func FunctionResult(name string, response map[string]any) Part {
	return Part{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}

// NewUserContent creates a user-role Content from the given parts.
func NewUserContent(parts ...Part) Content {
	return Content{Role: RoleUser, Parts: parts}
}

// NewModelContent creates a model-role Content from the given parts.
func NewModelContent(parts ...Part) Content {
	return Content{Role: RoleModel, Parts: parts}
}

// Empty reports whether the content carries no usable parts.
func (c Content) Empty() bool {
	for _, p := range c.Parts {
		if p.Text != "" || p.InlineData != nil || p.FunctionCall != nil ||
			p.FunctionResponse != nil || p.FileData != nil {
			return false
		}
	}
	return true
}

// JoinText concatenates the text parts of the content in order.
func (c Content) JoinText() string {
	var out string
	for _, p := range c.Parts {
		out += p.Text
	}
	return out
}
