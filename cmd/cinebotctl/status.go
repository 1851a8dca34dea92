package main

import (
	"fmt"
	"io"
	"net/http"
)

func runHealth(apiURL string, out io.Writer) error {
	return fetch(apiURL+"/health", out)
}

func runMetrics(apiURL string, out io.Writer) error {
	return fetch(apiURL+"/metrics", out)
}

func fetch(url string, out io.Writer) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
