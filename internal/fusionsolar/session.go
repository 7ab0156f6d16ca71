package fusionsolar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// tokenHeader is the request header carrying the session token. The server
// issues the token as a cookie of the same name during login.
const tokenHeader = "XSRF-TOKEN"

// defaultRequestTimeout is used when the configuration does not set one.
const defaultRequestTimeout = 30 * time.Second

// errRelogin signals internally that the server expired the session
// (failCode 305) and a fresh login should be attempted.
var errRelogin = errors.New("fusionsolar: session expired")

// session manages the authenticated HTTP exchange with the northbound API.
//
// The cookie jar keeps whatever session cookies the server sets alongside
// the XSRF token; the token itself is additionally sent as a header, which
// is what the server validates.
type session struct {
	base     string
	username string
	password string
	http     *http.Client

	mu    sync.Mutex
	token string
}

// envelope is the common response wrapper of all /thirdData endpoints.
type envelope struct {
	Success  bool            `json:"success"`
	FailCode int             `json:"failCode"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
}

// newSession builds an unauthenticated session.
func newSession(baseURL, username, password string, timeout time.Duration) (*session, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &session{
		base:     baseURL,
		username: username,
		password: password,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

// login authenticates against /thirdData/login and captures the XSRF token
// from the response cookies.
func (s *session) login(ctx context.Context) error {
	body := map[string]string{
		"userName":   s.username,
		"systemCode": s.password,
	}

	resp, env, err := s.post(ctx, "/thirdData/login", body, "")
	if err != nil {
		return err
	}

	if !env.Success || env.FailCode != 0 {
		return fmt.Errorf("%w: login rejected (code %d: %s)", ErrAuthentication, env.FailCode, env.Message)
	}

	token := ""
	for _, cookie := range resp.Cookies() {
		if cookie.Name == tokenHeader {
			token = cookie.Value
			break
		}
	}
	if token == "" {
		return fmt.Errorf("%w: login response carried no %s cookie", ErrAuthentication, tokenHeader)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return nil
}

// logout invalidates the session token. Errors are returned for logging but
// a failed logout leaves the token to expire server-side anyway.
func (s *session) logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.mu.Unlock()

	if token == "" {
		return nil
	}

	_, env, err := s.post(ctx, "/thirdData/logout", map[string]string{"xsrfToken": token}, token)
	if err != nil {
		return err
	}
	if !env.Success && env.FailCode != 0 {
		return fmt.Errorf("%w: logout failed (code %d)", ErrTransport, env.FailCode)
	}
	return nil
}

// call performs an authenticated API request and decodes the envelope data
// into out. When the server reports an expired session it logs in again and
// retries the request exactly once.
func (s *session) call(ctx context.Context, path string, req any, out any) error {
	err := s.do(ctx, path, req, out)
	if !errors.Is(err, errRelogin) {
		return err
	}

	if err := s.login(ctx); err != nil {
		return err
	}

	err = s.do(ctx, path, req, out)
	if errors.Is(err, errRelogin) {
		return fmt.Errorf("%w: session rejected immediately after login", ErrAuthentication)
	}
	return err
}

// do performs a single authenticated request without re-login handling.
func (s *session) do(ctx context.Context, path string, req any, out any) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return errRelogin
	}

	_, env, err := s.post(ctx, path, req, token)
	if err != nil {
		return err
	}

	switch env.FailCode {
	case 0:
		if out == nil || len(env.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decoding %s response data: %w", ErrTransport, path, err)
		}
		return nil
	case failCodeRelogin:
		return errRelogin
	case failCodeRateLimit:
		return fmt.Errorf("%w: %s", ErrRateLimited, path)
	default:
		return &APIError{FailCode: env.FailCode, Message: env.Message}
	}
}

// post sends one JSON request and decodes the response envelope.
func (s *session) post(ctx context.Context, path string, body any, token string) (*http.Response, *envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encoding %s request: %w", ErrTransport, path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: building %s request: %w", ErrTransport, path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set(tokenHeader, token)
	}

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %s returned HTTP %d", ErrTransport, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding %s envelope: %w", ErrTransport, path, err)
	}

	return resp, &env, nil
}
