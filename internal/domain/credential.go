package domain

// Credential is the stored login record: identity, bcrypt hash and granted authorities.
type Credential struct {
	Login        string
	PasswordHash string
	Authorities  []string
}
