package session

import "crypto/rand"

const (
	tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength  = 30
)

// randomToken generates the client-side session token: a random 30-character
// alphanumeric string. The service never issues this value itself; its web
// client generates it locally on login and the server accepts whatever the
// client presents alongside the authentication cookies.
func randomToken() string {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = tokenCharset[int(b)%len(tokenCharset)]
	}
	return string(buf)
}
