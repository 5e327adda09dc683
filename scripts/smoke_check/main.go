// Command smoke_check logs in with the demo accounts of a running server and
// verifies that a list of routes answer with the expected status and envelope.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Role     string `json:"role"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
	// Raw targets are not wrapped in the API envelope.
	Raw bool `json:"raw"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Envelope bool
	Error    error
	Duration time.Duration
}

func (r result) ok() bool {
	return r.Error == nil && r.Status == r.Target.Expect && (r.Target.Raw || r.Envelope)
}

func main() {
	var (
		base        string
		prefix      string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API prefix used for demo login")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke_check", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	tokens := map[string]string{}
	var (
		results  []result
		breaking int
		optional int
	)

	for _, t := range targets {
		res := result{Target: t}
		if t.Role != "" {
			if _, ok := tokens[t.Role]; !ok {
				token, err := loginAs(client, base, prefix, t.Role)
				if err != nil {
					res.Error = fmt.Errorf("login as %s: %w", t.Role, err)
				}
				tokens[t.Role] = token
			}
		}
		if res.Error == nil {
			res = check(client, base, tokens[t.Role], t)
		}
		if !res.ok() {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d, Optional failures: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Expect == 0 {
			cfg.Targets[i].Expect = http.StatusOK
		}
	}
	return cfg.Targets, nil
}

func loginAs(client *http.Client, base, prefix, role string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"role": role})
	url := joinURL(base, strings.TrimRight(prefix, "/")+"/auth/login-as")
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if env.Data.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return env.Data.AccessToken, nil
}

func check(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequest(method, joinURL(base, tgt.Path), nil)
	if err != nil {
		res.Error = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}
	res.Status = resp.StatusCode
	res.Envelope = isEnvelope(body, resp.StatusCode)
	return res
}

// isEnvelope reports whether body carries data on success or error on failure.
func isEnvelope(body []byte, status int) bool {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	if status >= http.StatusBadRequest {
		_, ok := env["error"]
		return ok
	}
	_, ok := env["data"]
	return ok
}

func joinURL(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.ok() {
			status = "FAIL"
		}
		role := res.Target.Role
		if role == "" {
			role = "anonymous"
		}
		fmt.Printf("[%s] %s %s as %s\n", status, res.Target.Method, res.Target.Path, role)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (expected %d, %s) | Envelope: %t | Critical: %t\n", res.Status, res.Target.Expect, res.Duration, res.Envelope, res.Target.Critical)
	}
}
