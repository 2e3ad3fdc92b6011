package models

type ApiResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Total      int         `json:"total,omitempty"`
	RetryAfter int         `json:"retry_after,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

// ListResponse carries a full, unpaginated listing and its size.
func ListResponse(data interface{}, total int) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Total:   total,
	}
}

// RetryResponse tells the client how many seconds to wait.
func RetryResponse(err string, seconds int) ApiResponse {
	return ApiResponse{
		Success:    false,
		Error:      err,
		RetryAfter: seconds,
	}
}
