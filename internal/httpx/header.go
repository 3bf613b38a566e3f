package httpx

import (
	"net/http"
	"sort"
	"strconv"
)

const crlf = "\r\n"

// HeaderLines renders resp's status line and header fields as the raw lines
// a transfer engine hands to its header callback, ending with the blank line.
func HeaderLines(resp *http.Response) [][]byte {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	status := resp.Status
	if status == "" {
		status = http.StatusText(resp.StatusCode)
		if status == "" {
			status = "status code"
		}
		status = strconv.Itoa(resp.StatusCode) + " " + status
	}

	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([][]byte, 0, len(keys)+2)
	lines = append(lines, []byte(proto+" "+status+crlf))
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			lines = append(lines, []byte(k+": "+v+crlf))
		}
	}
	lines = append(lines, []byte(crlf))
	return lines
}
