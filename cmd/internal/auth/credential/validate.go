package credential

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameLen = 64
	maxEmailLen    = 254
)

// Usernames never contain '@', so an identifier cannot match one account's
// username and another's email.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func validateUsername(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return "", ValidationError{Field: "username", Msg: "username is required"}
	case utf8.RuneCountInString(u) > maxUsernameLen:
		return "", ValidationError{Field: "username", Msg: "username is too long"}
	case !usernameRe.MatchString(u):
		return "", ValidationError{Field: "username", Msg: "username may only contain letters, digits, '.', '_' and '-'"}
	}
	return u, nil
}

func validateEmail(raw string) (string, error) {
	e := strings.TrimSpace(raw)
	if e == "" {
		return "", ValidationError{Field: "email", Msg: "email is required"}
	}
	if len(e) > maxEmailLen {
		return "", ValidationError{Field: "email", Msg: "email is too long"}
	}
	// Bare addresses only: "Alice <a@x.com>" parses but is not an address.
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || addr.Name != "" {
		return "", ValidationError{Field: "email", Msg: "email is not a valid address"}
	}
	return e, nil
}
