package errors

import (
	"encoding/json"
)

// ErrorResponse is the flat, serializable form of an error. The wrapped chain
// is excluded: it may carry filesystem paths or command output that clients
// have no use for.
type ErrorResponse struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Classification string                 `json:"classification"`
	Hints          []string               `json:"hints,omitempty"`
	Context        map[string]interface{} `json:"context,omitempty"`
}

// ToJSON converts any error to an ErrorResponse. Returns nil if err is nil.
//
// Standard errors become CodeUnknown / ClassificationPermanent with their
// text as message.
func ToJSON(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	response := &ErrorResponse{
		Code:           string(GetCode(err)),
		Message:        err.Error(),
		Classification: string(GetClassification(err)),
	}

	var platformErr PlatformError
	if As(err, &platformErr) {
		response.Message = platformErr.Message()
		response.Hints = platformErr.Hints()
		response.Context = platformErr.Context()
	}

	return response
}

// MarshalJSON implements json.Marshaler for platformError.
func (e *platformError) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(&ErrorResponse{
		Code:           string(e.code),
		Message:        e.message,
		Classification: string(e.classification),
		Hints:          e.hints,
		Context:        e.context,
	})
	if err != nil {
		return nil, &platformError{
			code:           CodeInternal,
			classification: ClassificationPermanent,
			message:        "failed to marshal error response",
			cause:          err,
		}
	}
	return data, nil
}
