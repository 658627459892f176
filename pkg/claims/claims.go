package claims

import jwt "github.com/dgrijalva/jwt-go"

type contextKey string

const (
	TokenContextKey contextKey = "token"
)

// Claims identify the operator (class leader, usher, admin) behind a request.
type Claims struct {
	User struct {
		Username string `json:"username"`
		ID       string `json:"id"`
	} `json:"user"`
	jwt.StandardClaims
}

func New(username, userID string) *Claims {
	c := &Claims{}
	c.User.Username = username
	c.User.ID = userID
	return c
}
