package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// missingError collects every required variable that is unset so the
// operator sees all of them at once.
type missingError struct{ keys []string }

func (e *missingError) Error() string {
	return "missing required env vars: " + strings.Join(e.keys, ", ")
}

// reader accumulates lookup failures while a config struct is assembled.
type reader struct {
	missing []string
	invalid []string
}

// must returns a required variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

// mustInt is like must but parses an integer.
func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, s))
	}
	return n
}

func (r *reader) err() error {
	if len(r.missing) > 0 {
		return &missingError{keys: r.missing}
	}
	if len(r.invalid) > 0 {
		return fmt.Errorf("invalid int env vars: %s", strings.Join(r.invalid, ", "))
	}
	return nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
