package domain

// TokenBundle is what the token endpoint returns: the signed bearer access
// token plus an opaque refresh token. The refresh token is issued for wire
// compatibility with the institutional SSO it stands in for; nothing in this
// service validates it. The wire shape lives in ssosdk; this struct stays
// plain.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // always "Bearer"
	ExpiresIn    int64  // seconds until access token expiry
	Subject      SubjectSummary
}
