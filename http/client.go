package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	gohttp "net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/log"
)

type ClientOptions struct {
	ServerAddr string
	Http       *gohttp.Client
}

// Client calls a WebService.
type Client struct {
	ClientOptions
}

func MakeClient(options ClientOptions) (*Client, error) {
	client := &Client{ClientOptions: options}

	if client.ServerAddr == "" {
		return nil, errors.Wrap(api.ErrConfiguration, "Expected ServerAddr")
	}

	if client.Http == nil {
		client.Http = defaultHttpClient()
	}

	return client, nil
}

func (client *Client) Get(id, band string) (api.Value, error) {
	const failMsg = "Client.Get failed"

	if id == "" || band == "" {
		return nil, errors.Wrapf(api.ErrInvalidArgument, "%s: id '%s' band '%s'", failMsg, id, band)
	}

	resp, err := client.do(gohttp.MethodGet, recordPath(id, band), nil)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	defer resp.Body.Close()

	value := api.Value{}
	err = json.NewDecoder(resp.Body).Decode(&value)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return value, nil
}

func (client *Client) Update(id, band string, value api.Value) error {
	const failMsg = "Client.Update failed"

	if id == "" || band == "" {
		return errors.Wrapf(api.ErrInvalidArgument, "%s: id '%s' band '%s'", failMsg, id, band)
	}

	bs, err := json.Marshal(value)

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	resp, err := client.do(gohttp.MethodPut, recordPath(id, band), bytes.NewReader(bs))

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	resp.Body.Close()
	return nil
}

func (client *Client) Remove(id, band string) error {
	const failMsg = "Client.Remove failed"

	if id == "" {
		return errors.Wrapf(api.ErrInvalidArgument, "%s: empty id", failMsg)
	}

	resp, err := client.do(gohttp.MethodDelete, recordPath(id, band), nil)

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	resp.Body.Close()
	return nil
}

func (client *Client) do(method, path string, body io.Reader) (*gohttp.Response, error) {
	addr := client.ServerAddr + path
	log.Info("HTTP %s to %s", method, addr)

	req, err := gohttp.NewRequest(method, addr, body)

	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set(CONTENT_TYPE, MIME_JSON)
	}

	resp, err := client.Http.Do(req)

	if err != nil {
		return nil, errors.Wrapf(err, "HTTP %s failed", method)
	}

	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeFailure(resp)
	}

	return resp, nil
}

func decodeFailure(resp *gohttp.Response) error {
	message := errorMessage{}

	if HasContentType(resp.Header, MIME_JSON) {
		err := json.NewDecoder(resp.Body).Decode(&message)

		if err == nil {
			return statusError(resp.StatusCode, message.Error)
		}
	}

	all, err := ioutil.ReadAll(resp.Body)

	if err != nil {
		log.Warn("Failed to read response body")
	}

	return statusError(resp.StatusCode, string(all))
}

func statusError(status int, text string) error {
	switch status {
	case gohttp.StatusBadRequest:
		return errors.Wrap(api.ErrInvalidArgument, text)
	case gohttp.StatusServiceUnavailable:
		return errors.Wrap(api.ErrClosed, text)
	default:
		return fmt.Errorf("Unexpected API response (%d): %s", status, text)
	}
}

func recordPath(id, band string) string {
	path := THINGS_ROOT + "/" + url.PathEscape(id)

	if band != "" {
		path += "/" + url.PathEscape(band)
	}

	return path
}

var __frontendClient *gohttp.Client

func defaultHttpClient() *gohttp.Client {
	if __frontendClient == nil {
		__frontendClient = &gohttp.Client{
			Timeout: time.Duration(__FRONTEND_TIMEOUT),
		}
	}

	return __frontendClient
}

const __FRONTEND_TIMEOUT = 1 * time.Minute
