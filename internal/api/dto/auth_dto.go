package dto

// LoginRequest is the body of POST /api/authenticate.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	IDToken string `json:"id_token"`
}

// AccountResponse describes the authenticated caller.
type AccountResponse struct {
	Login       string   `json:"login"`
	Authorities []string `json:"authorities"`
}
