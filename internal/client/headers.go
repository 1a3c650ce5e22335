package client

import "net/http"

func prepareRequestHeaders(apiKey, accept string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", accept)

	if apiKey != "" {
		h.Set("X-Api-Key", apiKey)
	}

	// Keep run streams uncompressed so chunks can be decoded as they arrive
	h.Set("Accept-Encoding", "identity")

	return h
}
