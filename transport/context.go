package transport

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
)

// Context is an HTTP context bound to one secure-computation server.
type Context struct {
	url    string
	client *http.Client
}

// New creates a Context for the given server URL. A trailing slash is
// stripped so that paths can always start with one.
func New(serverURL string) *Context {
	return &Context{
		url:    strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{},
	}
}

// URL returns the base server URL this context is bound to.
func (c *Context) URL() string { return c.url }

// Get sends a GET request and decodes the JSON response into out.
// out may be nil when the response body is irrelevant.
func (c *Context) Get(path string, params url.Values, out any, errMsg string) error {
	raw, _, err := getDelete(c.client, c.url, path, params, errMsg, false, false)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// GetAllow404 behaves like Get but treats a 404 response as "not found"
// rather than an error: it returns found == false and leaves out untouched.
func (c *Context) GetAllow404(path string, params url.Values, out any, errMsg string) (found bool, err error) {
	raw, found, err := getDelete(c.client, c.url, path, params, errMsg, true, false)
	if err != nil || !found {
		return found, err
	}
	return true, decodeInto(raw, out)
}

// Post sends a POST request with a JSON body and decodes the JSON response
// into out.
func (c *Context) Post(path string, body any, params url.Values, out any, errMsg string) error {
	raw, err := postPut(c.client, c.url, path, body, params, errMsg, false)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// Put sends a PUT request, expressed as a POST carrying an
// x-http-method-override header, and decodes the JSON response into out.
func (c *Context) Put(path string, body any, params url.Values, out any, errMsg string) error {
	raw, err := postPut(c.client, c.url, path, body, params, errMsg, true)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// Delete sends a DELETE request, expressed as a GET carrying an
// x-http-method-override header, and decodes the JSON response into out.
func (c *Context) Delete(path string, params url.Values, out any, errMsg string) error {
	raw, _, err := getDelete(c.client, c.url, path, params, errMsg, false, true)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// DeleteAllow404 behaves like Delete but treats a 404 response as
// "not found" rather than an error.
func (c *Context) DeleteAllow404(path string, params url.Values, out any, errMsg string) (found bool, err error) {
	raw, found, err := getDelete(c.client, c.url, path, params, errMsg, true, true)
	if err != nil || !found {
		return found, err
	}
	return true, decodeInto(raw, out)
}

// Download streams the response body to dataFile. A GET request is issued
// when body is nil, a POST otherwise. Returns the number of bytes written.
func (c *Context) Download(path, dataFile string, params url.Values, body any, errMsg string) (int64, error) {
	return download(c.client, c.url, path, dataFile, params, body, errMsg)
}

// Upload sends dataFile as a multipart POST with the given content type and
// file name, and decodes the JSON response into out.
func (c *Context) Upload(path, dataFile, contentType, fileName string, params url.Values, out any, errMsg string) error {
	raw, err := upload(c.client, c.url, path, dataFile, contentType, fileName, params, errMsg)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

func decodeInto(raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func requestURL(serverURL, path string, params url.Values) string {
	u := serverURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func baseHeaders(h http.Header) {
	h.Set("Accept-Encoding", "gzip")
	h.Set("Accept", "application/json")
}

// decodedBody returns the response body, inflating it first when the server
// answered compressed. Setting Accept-Encoding by hand switches off
// net/http's transparent gzip handling, so it has to happen here.
func decodedBody(resp *http.Response) (io.Reader, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return resp.Body, nil
	}
	return gzip.NewReader(resp.Body)
}

func readBody(serverURL string, resp *http.Response) ([]byte, error) {
	body, err := decodedBody(resp)
	if err != nil {
		return nil, &ConnError{URL: serverURL, Err: err}
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &ConnError{URL: serverURL, Err: err}
	}
	return raw, nil
}

func getDelete(client *http.Client, serverURL, path string, params url.Values, errMsg string, allow404, isDelete bool) (json.RawMessage, bool, error) {
	req, err := http.NewRequest(http.MethodGet, requestURL(serverURL, path, params), nil)
	if err != nil {
		return nil, false, err
	}
	baseHeaders(req.Header)
	if isDelete {
		req.Header.Set("x-http-method-override", "DELETE")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, &ConnError{URL: serverURL, Err: err}
	}
	defer resp.Body.Close()

	if allow404 && resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode >= 400 {
		body, _ := readBody(serverURL, resp)
		if errMsg == "" {
			errMsg = fmt.Sprintf("failed getting %s", path)
		}
		return nil, false, &RemoteError{Path: path, StatusCode: resp.StatusCode, Body: string(body), Msg: errMsg}
	}

	raw, err := readBody(serverURL, resp)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func postPut(client *http.Client, serverURL, path string, body any, params url.Values, errMsg string, isPut bool) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, requestURL(serverURL, path, params), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	baseHeaders(req.Header)
	req.Header.Set("Content-type", "application/json")
	if isPut {
		req.Header.Set("x-http-method-override", "PUT")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnError{URL: serverURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := readBody(serverURL, resp)
		if errMsg == "" {
			errMsg = fmt.Sprintf("failed posting to %s", path)
		}
		return nil, &RemoteError{Path: path, StatusCode: resp.StatusCode, Body: string(respBody), Msg: errMsg}
	}

	return readBody(serverURL, resp)
}

func download(client *http.Client, serverURL, path, dataFile string, params url.Values, body any, errMsg string) (int64, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequest(http.MethodGet, requestURL(serverURL, path, params), nil)
	} else {
		var payload []byte
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, err
		}
		req, err = http.NewRequest(http.MethodPost, requestURL(serverURL, path, params), bytes.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-type", "application/json")
		}
	}
	if err != nil {
		return 0, err
	}
	baseHeaders(req.Header)

	resp, err := client.Do(req)
	if err != nil {
		return 0, &ConnError{URL: serverURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := readBody(serverURL, resp)
		if errMsg == "" {
			errMsg = fmt.Sprintf("failed downloading the data from: %s", path)
		}
		return 0, &RemoteError{Path: path, StatusCode: resp.StatusCode, Body: string(respBody), Msg: errMsg}
	}

	bodyReader, err := decodedBody(resp)
	if err != nil {
		return 0, &ConnError{URL: serverURL, Err: err}
	}

	f, err := os.Create(dataFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := io.Copy(f, bodyReader)
	if err != nil {
		return n, &ConnError{URL: serverURL, Err: err}
	}
	return n, nil
}

func upload(client *http.Client, serverURL, path, dataFile, contentType, fileName string, params url.Values, errMsg string) (json.RawMessage, error) {
	f, err := os.Open(dataFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, requestURL(serverURL, path, params), &buf)
	if err != nil {
		return nil, err
	}
	baseHeaders(req.Header)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnError{URL: serverURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := readBody(serverURL, resp)
		if errMsg == "" {
			errMsg = fmt.Sprintf("failed uploading the data to: %s", path)
		}
		return nil, &RemoteError{Path: path, StatusCode: resp.StatusCode, Body: string(respBody), Msg: errMsg}
	}

	return readBody(serverURL, resp)
}
