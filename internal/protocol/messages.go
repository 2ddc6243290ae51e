package protocol

import "fmt"

// Command types understood by the canvas.
const (
	CmdAddComponent         = "add_component"
	CmdClearDocument        = "clear_document"
	CmdSaveDocument         = "save_document"
	CmdLoadDocument         = "load_document"
	CmdGetDocumentInfo      = "get_document_info"
	CmdConnectComponents    = "connect_components"
	CmdValidateConnection   = "validate_connection"
	CmdCreatePattern        = "create_pattern"
	CmdGetAvailablePatterns = "get_available_patterns"
	CmdGetComponentInfo     = "get_component_info"
	CmdGetAllComponents     = "get_all_components"
	CmdGetConnections       = "get_connections"
	CmdSearchComponents     = "search_components"
	CmdGetComponentParams   = "get_component_parameters"
)

// Command is one request sent to the canvas.
type Command struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

// Response is the canvas reply to a Command. Exactly one of Result or Error
// is meaningful, selected by Success.
type Response struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a successful response.
func Ok(result any) *Response {
	return &Response{Success: true, Result: result}
}

// Failure builds a failed response with a formatted error message.
func Failure(format string, a ...any) *Response {
	resp := &Response{Error: fmt.Sprintf(format, a...)}
	resp.normalize()
	return resp
}

// ResultMap returns the result as a JSON object. The map is shared with the
// response, so changes to it are visible to whoever returns the response.
func (r *Response) ResultMap() (map[string]any, bool) {
	if r == nil || !r.Success {
		return nil, false
	}
	m, ok := r.Result.(map[string]any)
	return m, ok
}

// ResultList returns the result as a JSON array.
func (r *Response) ResultList() ([]any, bool) {
	if r == nil || !r.Success {
		return nil, false
	}
	l, ok := r.Result.([]any)
	return l, ok
}

// normalize enforces that failures carry an error and no result, and that
// successes carry no error.
func (r *Response) normalize() {
	if r.Success {
		r.Error = ""
		return
	}
	r.Result = nil
	if r.Error == "" {
		r.Error = "canvas reported failure without an error message"
	}
}
