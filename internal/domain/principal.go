package domain

// Principal is the identity established for a request after its token verified.
type Principal struct {
	Login       string
	Authorities []string
}
