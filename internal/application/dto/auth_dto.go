package dto

// LoginRequest credenciales SOL para iniciar sesión.
type LoginRequest struct {
	RUC      string `json:"ruc"`
	Usuario  string `json:"usuario"`
	ClaveSol string `json:"claveSol"`
}

// LoginResponse token de sesión emitido tras validar contra SUNAT.
type LoginResponse struct {
	Token   string `json:"token"`
	RUC     string `json:"ruc"`
	Usuario string `json:"usuario"`
	Mensaje string `json:"mensaje,omitempty"`
}
