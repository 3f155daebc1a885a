package dto

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusResponse is the envelope used for every acknowledgement and error.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
