package generator

import "encoding/json"

// decodeError pulls the message out of an error body shaped like
// {"success":false,"error":"..."}.
func decodeError(body string) string {
	var resp generateResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return ""
	}
	return resp.Error
}
