package client

import (
	"encoding/json"
	"io"
	"net/http"
)

// ResponseBody holds the optional fields a WAF may return when it blocks
type ResponseBody struct {
	RuleID  *int
	Message *string
	Error   *string
}

// Reason returns message, falling back to error, or nil when neither is set
func (b ResponseBody) Reason() *string {
	if b.Message != nil && *b.Message != "" {
		return b.Message
	}
	if b.Error != nil && *b.Error != "" {
		return b.Error
	}
	return nil
}

// rawBody defers typing so a malformed field only loses that field
type rawBody struct {
	RuleID  json.RawMessage `json:"rule_id"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// decodeBody parses a response body. Anything that is not a JSON object
// yields the zero ResponseBody.
func decodeBody(data []byte) ResponseBody {
	var raw rawBody
	if err := json.Unmarshal(data, &raw); err != nil {
		return ResponseBody{}
	}

	var body ResponseBody
	var id int
	if json.Unmarshal(raw.RuleID, &id) == nil && !isNull(raw.RuleID) {
		body.RuleID = &id
	}
	body.Message = decodeString(raw.Message)
	body.Error = decodeString(raw.Error)
	return body
}

func decodeString(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// readBody reads response body with a size limit
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}
