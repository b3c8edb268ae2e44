package httputil

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/validation"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// DecodeBody decodes the request body and reports failures as validation
// errors on the "body" field.
func DecodeBody(r *http.Request, dest interface{}) error {
	if err := ParseJSON(r, dest); err != nil {
		return apperrors.Validation("invalid request body", []validation.FieldError{
			{Field: "body", Rule: "json", Message: err.Error()},
		})
	}
	return nil
}

// ParsePathInt64 extracts and parses an int64 path parameter
func ParsePathInt64(r *http.Request, key string) (int64, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return 0, fmt.Errorf("missing path parameter: %s", key)
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %s", key, str)
	}
	return val, nil
}

// PathID extracts a positive int64 path parameter, reported as a
// validation error otherwise.
func PathID(r *http.Request, key string) (int64, error) {
	val, err := ParsePathInt64(r, key)
	if err != nil {
		return 0, apperrors.Validation("invalid path parameter", []validation.FieldError{
			{Field: key, Rule: validation.RulePositive, Message: err.Error()},
		})
	}
	v := validation.New()
	v.Positive(key, val)
	if !v.Valid() {
		return 0, apperrors.Validation("invalid path parameter", v.Errors)
	}
	return val, nil
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ClientIP returns the host of the immediate peer. Forwarding headers are
// only honored through ForwardedForMiddleware, which rewrites RemoteAddr
// for trusted proxies.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// TrustedProxies is a set of networks whose forwarding headers are believed
type TrustedProxies []*net.IPNet

// ParseTrustedProxies accepts bare IPs and CIDR ranges
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy: %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy: %q", entry)
		}
		out = append(out, network)
	}
	return out, nil
}

// Contains reports whether ip belongs to one of the trusted networks
func (t TrustedProxies) Contains(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	for _, network := range t {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

// forwardedClient walks X-Forwarded-For from the right and returns the
// first hop that is not a trusted proxy. X-Real-IP is used when there is no
// X-Forwarded-For header.
func (t TrustedProxies) forwardedClient(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				return ""
			}
			if !t.Contains(hop) {
				return hop
			}
		}
		return strings.TrimSpace(hops[0])
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return ""
}
