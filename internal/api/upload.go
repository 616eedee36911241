package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"atlas-cli/internal/model"
)

// UploadRequest is one item of a batch submit.
type UploadRequest struct {
	Kind      model.SourceKind
	Theme     string
	EntryDate model.YearMonth

	// Image uploads.
	FileName string
	File     io.Reader

	// Link uploads.
	URL string
}

type UploadResult struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (r UploadRequest) validate() error {
	switch r.Kind {
	case model.SourceImage:
		if r.File == nil {
			return ErrMissingFile
		}
	case model.SourceLink:
		if strings.TrimSpace(r.URL) == "" {
			return ErrMissingURL
		}
	default:
		return fmt.Errorf("%w: %q", model.ErrInvalidSourceKind, r.Kind)
	}
	return nil
}

// Upload posts a single item as multipart form data.
func (c *Client) Upload(ctx context.Context, r UploadRequest) (UploadResult, error) {
	if err := r.validate(); err != nil {
		return UploadResult{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := [][2]string{
		{"type", string(r.Kind)},
		{"theme", r.Theme},
		{"entryDate", r.EntryDate.String()},
	}
	if r.Kind == model.SourceLink {
		fields = append(fields, [2]string{"url", strings.TrimSpace(r.URL)})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return UploadResult{}, err
		}
	}
	if r.Kind == model.SourceImage {
		part, err := createFilePart(writer, r.FileName)
		if err != nil {
			return UploadResult{}, err
		}
		if _, err := io.Copy(part, r.File); err != nil {
			return UploadResult{}, fmt.Errorf("read %s: %w", r.FileName, err)
		}
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(nil, "api", "upload"), &body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var res UploadResult
	if err := c.do(req, &res); err != nil {
		return UploadResult{}, err
	}
	return res, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func createFilePart(w *multipart.Writer, name string) (io.Writer, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload.dat"
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", ct)
	return w.CreatePart(h)
}
