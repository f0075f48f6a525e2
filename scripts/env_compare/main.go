// Command env_compare diffs API responses between two deployments of the
// service, e.g. staging against production before a release. Endpoints marked
// critical fail the run on any mismatch.
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
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Endpoints []endpoint `json:"endpoints"`
}

type result struct {
	Endpoint          endpoint
	BaselineStatus    int
	CandidateStatus   int
	StatusMatch       bool
	BodyMatch         bool
	Error             error
	DurationCandidate time.Duration
	DurationBaseline  time.Duration
}

func main() {
	var (
		candidateBase string
		baselineBase  string
		endpointsPath string
		token         string
		timeout       time.Duration
	)

	flag.StringVar(&candidateBase, "candidate", "http://localhost:8080", "candidate deployment base URL")
	flag.StringVar(&baselineBase, "baseline", "", "baseline deployment base URL")
	flag.StringVar(&endpointsPath, "endpoints", filepath.Join("scripts", "env_compare", "endpoints.json"), "path to JSON endpoints file")
	flag.StringVar(&token, "token", "", "bearer token sent to both deployments")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if baselineBase == "" {
		log.Fatal("-baseline is required")
	}

	endpoints, err := loadEndpoints(endpointsPath)
	if err != nil {
		log.Fatalf("failed to load endpoints: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results      []result
		breaking     int
		optionalDiff int
	)

	for _, ep := range endpoints {
		res := compareEndpoint(client, candidateBase, baselineBase, token, ep)
		if res.Error != nil {
			if ep.Critical {
				breaking++
			}
		} else if !res.StatusMatch || !res.BodyMatch {
			if ep.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadEndpoints(path string) ([]endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints defined in %s", path)
	}
	return cfg.Endpoints, nil
}

func compareEndpoint(client *http.Client, candidateBase, baselineBase, token string, ep endpoint) result {
	res := result{Endpoint: ep}
	candResp, candDur, candErr := performRequest(client, candidateBase, token, ep)
	baseResp, baseDur, baseErr := performRequest(client, baselineBase, token, ep)
	res.DurationCandidate = candDur
	res.DurationBaseline = baseDur

	if candErr != nil {
		res.Error = fmt.Errorf("candidate request failed: %w", candErr)
		return res
	}
	if baseErr != nil {
		res.Error = fmt.Errorf("baseline request failed: %w", baseErr)
		return res
	}

	res.CandidateStatus = candResp.StatusCode
	res.BaselineStatus = baseResp.StatusCode
	res.StatusMatch = res.CandidateStatus == res.BaselineStatus

	defer candResp.Body.Close()
	defer baseResp.Body.Close()

	candBody, err := io.ReadAll(candResp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read candidate body: %w", err)
		return res
	}
	baseBody, err := io.ReadAll(baseResp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read baseline body: %w", err)
		return res
	}

	res.BodyMatch = bodiesEqual(candBody, baseBody)
	return res
}

func performRequest(client *http.Client, base, token string, ep endpoint) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := ep.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	}
}

func printReport(results []result) {
	fmt.Println("endpoint comparison report")
	fmt.Println(strings.Repeat("-", 72))
	for _, res := range results {
		label := fmt.Sprintf("%s %s", strings.ToUpper(res.Endpoint.Method), res.Endpoint.Path)
		if res.Error != nil {
			fmt.Printf("%-48s ERROR: %v\n", label, res.Error)
			continue
		}
		verdict := "OK"
		if !res.StatusMatch {
			verdict = fmt.Sprintf("STATUS %d != %d", res.CandidateStatus, res.BaselineStatus)
		} else if !res.BodyMatch {
			verdict = "BODY DIFF"
		}
		fmt.Printf("%-48s %-20s cand=%s base=%s\n", label, verdict,
			res.DurationCandidate.Round(time.Millisecond), res.DurationBaseline.Round(time.Millisecond))
	}
}
