package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse respuesta mínima de operaciones sin cuerpo.
type StatusResponse struct {
	Status string `json:"status"`
}
