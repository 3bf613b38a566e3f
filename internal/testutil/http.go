package testutil

import "net/http"

// FakeHTTPDoer stubs the single method of *http.Client the engine uses.
type FakeHTTPDoer struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (f *FakeHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	return f.DoFunc(req)
}
