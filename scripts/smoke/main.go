// Command smoke hits a running registrar API and reports per-endpoint
// status and latency. Intended for post-deploy checks; exits non-zero when a
// critical check fails.
package main

import (
	"encoding/json"
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

type check struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type checksFile struct {
	Checks []check `json:"checks"`
}

type result struct {
	Check    check
	Status   int
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base       string
		checksPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&checksPath, "checks", filepath.Join("scripts", "smoke", "checks.json"), "Path to JSON checks file")
	flag.StringVar(&token, "token", "", "Bearer token for protected endpoints")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	checks, err := loadChecks(checksPath)
	if err != nil {
		log.Fatalf("failed to load checks: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var results []result
	failed := 0
	for _, c := range checks {
		res := runCheck(client, base, token, c)
		if !res.passed() && c.Critical {
			failed++
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Critical failures: %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func loadChecks(path string) ([]check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file checksFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Checks) == 0 {
		return nil, fmt.Errorf("no checks defined in %s", path)
	}
	return file.Checks, nil
}

func (r result) passed() bool {
	if r.Err != nil {
		return false
	}
	expect := r.Check.Expect
	if expect == 0 {
		expect = http.StatusOK
	}
	return r.Status == expect
}

func runCheck(client *http.Client, base, token string, c check) result {
	res := result{Check: c}

	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := c.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Err = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	res.Status = resp.StatusCode
	return res
}

func printReport(results []result) {
	fmt.Println("Registrar API Smoke Report")
	fmt.Println("==========================")
	for _, res := range results {
		status := "OK"
		if !res.passed() {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Check.Method, res.Check.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		expect := res.Check.Expect
		if expect == 0 {
			expect = http.StatusOK
		}
		fmt.Printf("  Status: %d (want %d) in %s | Critical: %t\n", res.Status, expect, res.Duration, res.Check.Critical)
	}
}
