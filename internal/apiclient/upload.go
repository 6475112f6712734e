package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
)

// Progress reports bytes sent so far. Total is the full body size.
type Progress struct {
	Loaded int64
	Total  int64
}

// Percent returns progress in [0, 100], or 0 when Total is unknown.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(p.Loaded * 100 / p.Total)
}

type UploadFile struct {
	// Field is the multipart form field; "file" when empty.
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

type UploadRequest struct {
	Path       string
	Files      []UploadFile
	Fields     map[string]string
	OnProgress func(Progress)
}

// Upload sends a multipart/form-data POST and decodes the response into out.
func (c *Client) Upload(ctx context.Context, up UploadRequest, out any, opts ...RequestOption) error {
	body, contentType, err := buildMultipart(up)
	if err != nil {
		return Normalize(err)
	}

	req := &Request{
		Method:           http.MethodPost,
		Path:             up.Path,
		Body:             body,
		ContentType:      contentType,
		OnUploadProgress: up.OnProgress,
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.Do(ctx, req, out)
}

func buildMultipart(up UploadRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := make([]string, 0, len(up.Fields))
	for k := range up.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		if err := w.WriteField(k, up.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("write field %q: %w", k, err)
		}
	}

	for _, f := range up.Files {
		field := f.Field
		if field == "" {
			field = "file"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", f.Name, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("copy %q: %w", f.Name, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Download fetches path and returns the raw response body.
func (c *Client) Download(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   path,
		Header: http.Header{"Accept": []string{"*/*"}},
	}
	for _, opt := range opts {
		opt(req)
	}
	var raw []byte
	if err := c.Do(ctx, req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	fn     func(Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(Progress{Loaded: p.loaded, Total: p.total})
	}
	return n, err
}
