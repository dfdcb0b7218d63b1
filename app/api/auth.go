package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshGate prevents concurrent refresh attempts; followers wait for
// the leader's result instead of issuing their own refresh.
type refreshGate struct {
	mu       sync.Mutex
	inFlight bool
	done     chan struct{}
	lastErr  error
}

// tokenExpiringSoon decodes the access token without verifying its
// signature (the server verifies; we only read the expiry claim) and
// reports whether it expires within the margin.
func tokenExpiringSoon(token string, margin time.Duration) bool {
	if token == "" {
		return true
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Unparseable token: treat as expiring so a refresh is attempted
		// before the server rejects it.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < margin
}

// doRequestWithAuth attaches the bearer token and retries once after a
// token refresh when the server answers 401/403. Tokens near expiry are
// refreshed proactively to avoid a guaranteed round-trip failure.
func (c *Client) doRequestWithAuth(req *http.Request) (*http.Response, error) {
	if c.tokens == nil {
		return c.client.Do(req)
	}

	access, _ := c.tokens.Tokens()
	if tokenExpiringSoon(access, time.Minute) {
		if err := c.refreshTokens(); err != nil {
			c.log("warn", fmt.Sprintf("Proactive token refresh failed: %v", err))
		}
		access, _ = c.tokens.Tokens()
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		if err := c.refreshTokens(); err != nil {
			return nil, fmt.Errorf("failed to refresh auth token: %w", err)
		}
		access, _ = c.tokens.Tokens()
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err = c.client.Do(req)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// refreshTokens exchanges the refresh token for a new pair. Concurrent
// callers coalesce onto one in-flight refresh.
func (c *Client) refreshTokens() error {
	c.refresh.mu.Lock()
	if c.refresh.inFlight {
		done := c.refresh.done
		c.refresh.mu.Unlock()
		<-done
		c.refresh.mu.Lock()
		err := c.refresh.lastErr
		c.refresh.mu.Unlock()
		return err
	}
	c.refresh.inFlight = true
	c.refresh.done = make(chan struct{})
	c.refresh.mu.Unlock()

	err := c.refreshOnce()

	c.refresh.mu.Lock()
	c.refresh.inFlight = false
	c.refresh.lastErr = err
	close(c.refresh.done)
	c.refresh.mu.Unlock()
	return err
}

func (c *Client) refreshOnce() error {
	_, refresh := c.tokens.Tokens()
	if refresh == "" {
		return fmt.Errorf("no refresh token available")
	}

	body, err := json.Marshal(RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send refresh request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result RefreshResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to unmarshal refresh response: %w", err)
	}
	if err := c.tokens.SaveTokens(result.AccessToken, result.RefreshToken); err != nil {
		return fmt.Errorf("failed to save refreshed tokens: %w", err)
	}
	return nil
}
