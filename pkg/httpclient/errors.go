package httpclient

import "encoding/json"

// ErrorMessage extracts a human-readable message from an error body. It
// understands the /api/v1 envelope ({"error":{"code","message"}}) and the
// flat {"error":"message"} shape of the checkout session endpoint. Any other
// body yields an empty message.
func ErrorMessage(body []byte) (code, message string) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Error) > 0 {
		var flat string
		if json.Unmarshal(envelope.Error, &flat) == nil {
			return "", flat
		}
		var structured struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &structured) == nil && structured.Message != "" {
			return structured.Code, structured.Message
		}
	}
	return "", ""
}
