package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"intelligent-scheduler/pkg/response"
)

const (
	SignatureHeader = "X-Signature"
	signaturePrefix = "sha256="
	rawBodyKey      = "middleware.rawBody"
	maxBodyBytes    = 1 << 20
)

var (
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// VerifySignature checks X-Signature: sha256=<hex> over the raw body when a
// secret is configured.
func (mw Middleware) VerifySignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		if mw.cfg.Secret == "" {
			c.Next()
			return
		}

		body, err := rawBody(c)
		if err != nil {
			response.Error(c, err, nil)
			c.Abort()
			return
		}
		if err := validateSignature(mw.cfg.Secret, body, c.GetHeader(SignatureHeader)); err != nil {
			mw.l.Warnf(c.Request.Context(), "middleware.VerifySignature: %v", err)
			response.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AllowIPs rejects clients outside the configured allow list.
func (mw Middleware) AllowIPs() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := validateIPAddress(mw.cfg.AllowedIPs, c.Request); err != nil {
			mw.l.Warnf(c.Request.Context(), "middleware.AllowIPs: %v", err)
			response.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit applies a token bucket per user_id found in the JSON body,
// falling back to the client IP.
func (mw Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if mw.limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + extractIP(c.Request)
		if body, err := rawBody(c); err == nil {
			var peek struct {
				UserID string `json:"user_id"`
			}
			if json.Unmarshal(body, &peek) == nil && strings.TrimSpace(peek.UserID) != "" {
				key = "user:" + strings.TrimSpace(peek.UserID)
			}
		}

		if err := mw.limiter.Allow(key); err != nil {
			mw.l.Warnf(c.Request.Context(), "middleware.RateLimit: %v", err)
			response.ErrorWithStatus(c, http.StatusTooManyRequests, err, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// rawBody reads the request body once and puts it back for later binding.
func rawBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(rawBodyKey); ok {
		return v.([]byte), nil
	}
	if c.Request.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	c.Request.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Set(rawBodyKey, body)
	return body, nil
}

func validateSignature(secret string, payload []byte, signature string) error {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return fmt.Errorf("%w: invalid signature format", ErrInvalidSignature)
	}

	expected, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return fmt.Errorf("%w: invalid hex encoding", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(expected, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the X-Signature value for payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func validateIPAddress(allowed []string, r *http.Request) error {
	if len(allowed) == 0 {
		return nil
	}

	ip := extractIP(r)
	parsed := net.ParseIP(ip)
	for _, entry := range allowed {
		if ip == entry {
			return nil
		}
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil || parsed == nil {
				continue
			}
			if ipNet.Contains(parsed) {
				return nil
			}
		}
	}
	return fmt.Errorf("IP %s not allowed", ip)
}

func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// rateLimiter keeps one limiter per key; idle keys expire from the LRU.
type rateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newRateLimiter(requestsPerMin int) *rateLimiter {
	burst := requestsPerMin / 10
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](1000, nil, 5*time.Minute),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		burst:    burst,
	}
}

func (rl *rateLimiter) Allow(key string) error {
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	if !limiter.Allow() {
		return fmt.Errorf("%w for %s", ErrRateLimited, key)
	}
	return nil
}
