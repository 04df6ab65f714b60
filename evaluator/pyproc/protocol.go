package pyproc

import "encoding/json"

// request is one code unit sent to the runner.
type request struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// response is the runner's answer to one request.
type response struct {
	ID      string `json:"id"`
	Output  string `json:"output"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Bindings maps each namespace binding to its repr, truncated by the
	// runner. The engine treats the values as opaque.
	Bindings map[string]string `json:"bindings"`
}

func encodeRequest(req request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decodeResponse(line []byte) (response, error) {
	var resp response
	err := json.Unmarshal(line, &resp)
	return resp, err
}
