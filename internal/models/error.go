package models

// ErrorResponse is the JSON body returned for every failed request. The key
// name matches what existing clients of the API already parse.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
