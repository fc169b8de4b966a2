package handler

type errorPayload struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	CurrentPricing string `json:"currentPricing,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// NewPricingErrorResponse additionally carries the server-computed total
// so a conflicting client can re-render the correct price.
func NewPricingErrorResponse(code, message, currentPricing string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:           code,
			Message:        message,
			CurrentPricing: currentPricing,
		},
	}
}
