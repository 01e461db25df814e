package provider

import "net/http"

// roundTripFunc lets tests stand in for an upstream API without a listener.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
