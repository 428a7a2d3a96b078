package entity

// AuthBundle holds whatever credentials the harvester could pull off the
// loaded page. Ephemeral, scoped to one submission attempt. Every field is
// best-effort; absence of a token only means the corresponding header is not
// sent downstream.
type AuthBundle struct {
	JWTToken  string
	JWTSource string // where the token was found, for diagnostics
	CSRFToken string
	Cookies   string
	// Captured carries the remaining key-values the scan turned up
	// (hidden inputs, meta_* entries, form_* serialized field values).
	Captured map[string]string
}

func (a *AuthBundle) HasJWT() bool {
	return a != nil && a.JWTToken != ""
}
