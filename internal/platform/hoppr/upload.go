package hoppr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ErrUploadNotSupported means the service rejected every known upload call
// shape for this deployment.
var ErrUploadNotSupported = errors.New("hoppr: image upload not accepted in any known call shape")

// uploadStrategy is one wire encoding of the image upload call. The remote
// API has shipped several variants of this operation; strategies are tried in
// order and the first accepted one wins.
type uploadStrategy struct {
	name   string
	encode func(ctx context.Context, c *Client, studyID, filename string, data []byte) (*http.Request, error)
}

func uploadStrategies() []uploadStrategy {
	return []uploadStrategy{
		{name: "multipart-data", encode: encodeMultipart("data")},
		{name: "multipart-image-bytes", encode: encodeMultipart("image_bytes")},
		{name: "raw-body", encode: encodeRawBody},
	}
}

// AddImage uploads raw image bytes under a filename reference. Each upload
// strategy is attempted in order; a rejection that looks like a
// call-shape mismatch moves on to the next, while transport failures and
// other remote errors abort immediately. Only when every strategy is
// rejected does AddImage fail with ErrUploadNotSupported.
func (c *Client) AddImage(ctx context.Context, studyID, filename string, data []byte) error {
	var lastStatus int
	for _, strat := range uploadStrategies() {
		req, err := strat.encode(ctx, c, studyID, filename, data)
		if err != nil {
			return fmt.Errorf("upload image (%s): %w", strat.name, err)
		}
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("upload image (%s): %w", strat.name, err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if !shapeMismatch(resp.StatusCode) {
			return fmt.Errorf("upload image (%s): %w", strat.name, &APIError{Status: resp.StatusCode, Body: snippet(body)})
		}
		lastStatus = resp.StatusCode
		c.log.Debug().
			Str("strategy", strat.name).
			Int("status", resp.StatusCode).
			Msg("upload call shape rejected, trying next")
	}
	return fmt.Errorf("%w (last status %d)", ErrUploadNotSupported, lastStatus)
}

// shapeMismatch reports whether a status plausibly means "this deployment
// does not speak that call shape", as opposed to a hard failure like auth or
// a server error.
func shapeMismatch(status int) bool {
	switch status {
	case http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusUnsupportedMediaType,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func encodeMultipart(fileField string) func(ctx context.Context, c *Client, studyID, filename string, data []byte) (*http.Request, error) {
	return func(ctx context.Context, c *Client, studyID, filename string, data []byte) (*http.Request, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if err := w.WriteField("reference", filename); err != nil {
			return nil, err
		}
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/v1/studies/"+studyID+"/images", &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}
}

func encodeRawBody(ctx context.Context, c *Client, studyID, filename string, data []byte) (*http.Request, error) {
	u := c.baseURL + "/v1/studies/" + studyID + "/images?reference=" + url.QueryEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	return req, nil
}
