// Command test_integration drives a running spart server through one
// evaluation and one closure request.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Server base URL")
	data := flag.String("testdata", "internal/evaluation/testdata", "Directory holding cmt.ofn, ekaw.ofn, matcher.rdf and reference.rdf")
	flag.Parse()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	doc := func(name string) map[string]string {
		content, err := os.ReadFile(filepath.Join(*data, name))
		if err != nil {
			fmt.Printf("FAILED: reading %s: %v\n", name, err)
			os.Exit(1)
		}
		return map[string]string{"name": name, "content": string(content)}
	}

	fmt.Println("1. Health check...")
	if _, ok := sendRequest(*baseURL, "GET", "/healthz", nil); !ok {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	fmt.Println("2. Evaluating alignment...")
	resp, ok := sendRequest(*baseURL, "POST", "/evaluate", map[string]any{
		"ontology1": doc("cmt.ofn"),
		"ontology2": doc("ekaw.ofn"),
		"alignment": doc("matcher.rdf"),
		"reference": doc("reference.rdf"),
		"semantic":  "natural",
		"threshold": 0.5,
	})
	if !ok || resp["precision"] == nil {
		fmt.Println("FAILED: Evaluate")
		os.Exit(1)
	}
	fmt.Printf("PASSED: Evaluate (precision %v, recall %v)\n", resp["precision"], resp["recall"])

	fmt.Println("3. Computing closure...")
	resp, ok = sendRequest(*baseURL, "POST", "/closure", map[string]any{
		"ontology1": doc("cmt.ofn"),
		"ontology2": doc("ekaw.ofn"),
		"alignment": doc("reference.rdf"),
		"semantic":  "pragmatic",
	})
	if !ok {
		fmt.Println("FAILED: Closure")
		os.Exit(1)
	}
	fmt.Printf("PASSED: Closure (%v correspondences)\n", resp["closure_size"])
}

func sendRequest(baseURL, method, endpoint string, payload any) (map[string]any, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}
	fmt.Printf("Response: %s\n", string(respBody))

	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil {
		fmt.Printf("Invalid JSON response: %v\n", err)
		return nil, false
	}
	return out, true
}
