package client

import (
	"net/url"
	"strings"
)

func buildTargetURL(baseURL, path string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		u = &url.URL{Scheme: "http", Host: "localhost:2024"}
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}
