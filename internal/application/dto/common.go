package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MensajeResponse respuesta simple con mensaje informativo.
type MensajeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
