package types

// Response is the generic envelope used for acknowledgements and errors.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Logout successful"`
	Error   string `json:"error,omitempty"`
}
