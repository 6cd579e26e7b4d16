package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g. a decoded JSON object).
type DataPart struct {
	Data     map[string]any
	Metadata map[string]any
}

func (DataPart) isPart() {}

// FilePart is a binary attachment segment, used for crop images handed to the
// disease diagnosis agent and for wildlife camera frames.
type FilePart struct {
	File     FileRef
	Metadata map[string]any
}

func (FilePart) isPart() {}

// FileRef holds inlined file bytes or an external reference.
type FileRef struct {
	Bytes    []byte // Raw contents (if inlined)
	MimeType string // MIME type, e.g. "image/jpeg"
	Name     string // Original filename hint
	URI      string // External retrieval URI (if not inlined)
}

// FunctionCall describes a tool invocation request emitted by the capability.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Correlates call and response
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
	Metadata     map[string]any
}

func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string      `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string      `json:"name"`               // Function name
	Response interface{} `json:"response,omitempty"` // Successful result (any shape)
	Error    string      `json:"error,omitempty"`    // Populated on failure
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
	Metadata         map[string]any
}

func (FunctionResponsePart) isPart() {}

// Content holds a conversation role plus ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // user, assistant, tool, system
	Parts []Part `json:"parts"`
}

// NewUserText builds user content from a single text message.
func NewUserText(text string) Content {
	return Content{Role: "user", Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts of the content in order.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}
