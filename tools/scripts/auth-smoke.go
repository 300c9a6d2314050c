// Package main provides a CI-friendly smoke test for a running auth server.
//
// It validates:
//   - register returns 201 with a token
//   - a second register with the same username is a 409 without a token
//   - login by username and by email
//   - /me with the issued token, without a token, and with a tampered token
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type smokeClient struct {
	base    string
	http    *http.Client
	timeout time.Duration
	verbose bool
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Base URL of the auth API, including any route prefix")
		password = flag.String("password", "smoke-test-password-1", "Password for the throwaway account")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{},
		timeout: *timeout,
		verbose: *verbose,
	}
	root := context.Background()

	suffix := strings.ReplaceAll(uuid.NewString()[:13], "-", "")
	username := "smoke_" + suffix
	email := "smoke+" + suffix + "@example.com"

	reg := c.mustStatus(root, "register", http.MethodPost, "/register", "", map[string]string{
		"username": username, "email": email, "password": *password,
	}, http.StatusCreated)
	if reg.Token == "" || reg.User.ID == "" {
		fatalf("register: missing token or user id")
	}

	dup := c.mustStatus(root, "register duplicate", http.MethodPost, "/register", "", map[string]string{
		"username": strings.ToUpper(username), "email": "other+" + email, "password": *password,
	}, http.StatusConflict)
	if dup.Token != "" {
		fatalf("register duplicate: conflict response carried a token")
	}

	byName := c.mustStatus(root, "login username", http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": *password,
	}, http.StatusOK)
	c.mustStatus(root, "login email", http.MethodPost, "/login", "", map[string]string{
		"email": email, "password": *password,
	}, http.StatusOK)
	c.mustStatus(root, "login bad password", http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": *password + "x",
	}, http.StatusUnauthorized)

	me := c.mustStatus(root, "me", http.MethodGet, "/me", byName.Token, nil, http.StatusOK)
	if me.User.ID != reg.User.ID {
		fatalf("me: id mismatch: got %s want %s", me.User.ID, reg.User.ID)
	}
	c.mustStatus(root, "me without token", http.MethodGet, "/me", "", nil, http.StatusUnauthorized)
	c.mustStatus(root, "me tampered token", http.MethodGet, "/me", tamper(byName.Token), nil, http.StatusUnauthorized)

	fmt.Printf("OK: user=%s id=%s\n", username, reg.User.ID)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *smokeClient) mustStatus(parent context.Context, step, method, path, bearer string, body any, want int) envelope {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fatalf("%s: marshal: %v", step, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		fatalf("%s: build request: %v", step, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s: %v", step, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("%s: read body: %v", step, err)
	}
	if c.verbose {
		fmt.Printf("%s: %d %s\n", step, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if resp.StatusCode != want {
		fatalf("%s: status=%d want=%d body=%s", step, resp.StatusCode, want, bytes.TrimSpace(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		fatalf("%s: decode body: %v", step, err)
	}
	if env.Success != (want < 400) {
		fatalf("%s: success=%v for status %d", step, env.Success, resp.StatusCode)
	}
	return env
}

// tamper flips one character in the signature segment.
func tamper(tok string) string {
	i := strings.LastIndexByte(tok, '.') + 1
	if i <= 0 || i >= len(tok) {
		return tok + "x"
	}
	b := []byte(tok)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
