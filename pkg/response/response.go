package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Meta       *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination details for list endpoints
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ErrorBody is the failure envelope. Errors is either a single message or a
// field -> messages map for validation failures.
type ErrorBody struct {
	Errors interface{} `json:"errors"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithPagination wraps a page of data together with its pagination meta
func SuccessWithPagination(statusCode int, data interface{}, page, limit int, total int64) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
		Meta:       &Meta{Page: page, Limit: limit, Total: total},
	}
}

// Error returns an error body carrying a single message
func Error(message string) ErrorBody {
	return ErrorBody{Errors: message}
}

// FieldErrors returns an error body carrying field-scoped messages
func FieldErrors(fields map[string][]string) ErrorBody {
	return ErrorBody{Errors: fields}
}
