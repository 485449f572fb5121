package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/dam"
)

const stagedUploadCreateQuery = `
mutation stagedUploadCreate($input: StagedUploadInput!) {
  stagedUploadCreate(input: $input) {
    target { url resourceUrl parameters { name value } }
    userErrors { message }
  }
}`

const fileCreateQuery = `
mutation fileCreate($input: FileCreateInput!) {
  fileCreate(input: $input) {
    file { id url preview { image { url } } }
    userErrors { message }
  }
}`

const fileDeleteQuery = `
mutation fileDelete($id: ID!) {
  fileDelete(id: $id) {
    deletedFileId
    userErrors { message }
  }
}`

// Stager publishes assets to the content host in three sequential phases:
// stage an upload target, transfer the bytes, then finalize the durable
// asset. Each phase runs exactly once; any failure aborts the whole
// publish with no retry and no cleanup of earlier phases.
type Stager struct {
	client *Client
	logger *zap.Logger
}

// NewStager builds a Stager over a content host client.
func NewStager(client *Client, logger *zap.Logger) *Stager {
	return &Stager{client: client, logger: logger}
}

var _ dam.AssetHost = (*Stager)(nil)

type stagedTarget struct {
	URL         string `json:"url"`
	ResourceURL string `json:"resourceUrl"`
	Parameters  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"parameters"`
}

type userError struct {
	Message string `json:"message"`
}

// Publish runs the three-phase upload and returns the durable asset.
func (s *Stager) Publish(ctx context.Context, upload dam.AssetUpload) (dam.StagedAsset, error) {
	target, err := s.stage(ctx, upload)
	if err != nil {
		return dam.StagedAsset{}, dam.ErrExternal("staging the upload failed", err)
	}

	if err := s.transfer(ctx, target, upload); err != nil {
		return dam.StagedAsset{}, dam.ErrExternal("transferring the upload failed", err)
	}

	asset, err := s.finalize(ctx, target, upload)
	if err != nil {
		// The transferred bytes stay behind on the host with no local
		// record; there is no compensating deletion call.
		return dam.StagedAsset{}, dam.ErrExternal("finalizing the upload failed", err)
	}

	s.logger.Info("asset published",
		zap.String("filename", upload.Filename),
		zap.String("asset_id", asset.AssetID),
		zap.Int64("size", upload.Size))
	return asset, nil
}

// stage requests a one-time upload target for the payload.
func (s *Stager) stage(ctx context.Context, upload dam.AssetUpload) (stagedTarget, error) {
	var data struct {
		StagedUploadCreate struct {
			Target     *stagedTarget `json:"target"`
			UserErrors []userError   `json:"userErrors"`
		} `json:"stagedUploadCreate"`
	}

	err := s.client.query(ctx, stagedUploadCreateQuery, map[string]any{
		"input": map[string]any{
			"filename": upload.Filename,
			"mimeType": upload.MimeType,
			"fileSize": strconv.FormatInt(upload.Size, 10),
		},
	}, &data)
	if err != nil {
		return stagedTarget{}, err
	}
	if len(data.StagedUploadCreate.UserErrors) > 0 {
		return stagedTarget{}, fmt.Errorf("host refused staging: %s", data.StagedUploadCreate.UserErrors[0].Message)
	}
	if data.StagedUploadCreate.Target == nil || data.StagedUploadCreate.Target.URL == "" {
		return stagedTarget{}, fmt.Errorf("host returned no upload target")
	}
	return *data.StagedUploadCreate.Target, nil
}

// transfer posts the raw bytes to the staged target as multipart form data,
// forwarding every staging parameter ahead of the file field.
func (s *Stager) transfer(ctx context.Context, target stagedTarget, upload dam.AssetUpload) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, p := range target.Parameters {
		if err := mw.WriteField(p.Name, p.Value); err != nil {
			return fmt.Errorf("writing form field %q: %w", p.Name, err)
		}
	}
	part, err := mw.CreateFormFile("file", upload.Filename)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return fmt.Errorf("reading upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload target returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// finalize registers a durable asset from the staged resource and extracts
// its public URL. Images and videos report their URL through a nested
// preview reference.
func (s *Stager) finalize(ctx context.Context, target stagedTarget, upload dam.AssetUpload) (dam.StagedAsset, error) {
	var data struct {
		FileCreate struct {
			File *struct {
				ID      string `json:"id"`
				URL     string `json:"url"`
				Preview *struct {
					Image *struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"preview"`
			} `json:"file"`
			UserErrors []userError `json:"userErrors"`
		} `json:"fileCreate"`
	}

	err := s.client.query(ctx, fileCreateQuery, map[string]any{
		"input": map[string]any{
			"originalSource": target.ResourceURL,
			"filename":       upload.Filename,
			"contentType":    upload.MimeType,
		},
	}, &data)
	if err != nil {
		return dam.StagedAsset{}, err
	}
	if len(data.FileCreate.UserErrors) > 0 {
		return dam.StagedAsset{}, fmt.Errorf("host refused file creation: %s", data.FileCreate.UserErrors[0].Message)
	}
	if data.FileCreate.File == nil || data.FileCreate.File.ID == "" {
		return dam.StagedAsset{}, fmt.Errorf("host returned no file record")
	}

	asset := dam.StagedAsset{
		AssetID: data.FileCreate.File.ID,
		URL:     data.FileCreate.File.URL,
	}
	if p := data.FileCreate.File.Preview; p != nil && p.Image != nil {
		asset.PreviewURL = p.Image.URL
		if asset.URL == "" {
			asset.URL = p.Image.URL
		}
	}
	if asset.URL == "" {
		return dam.StagedAsset{}, fmt.Errorf("host returned no public url for asset %s", asset.AssetID)
	}
	return asset, nil
}

// Remove deletes a published asset from the content host.
func (s *Stager) Remove(ctx context.Context, externalAssetID string) error {
	var data struct {
		FileDelete struct {
			DeletedFileID string      `json:"deletedFileId"`
			UserErrors    []userError `json:"userErrors"`
		} `json:"fileDelete"`
	}

	err := s.client.query(ctx, fileDeleteQuery, map[string]any{"id": externalAssetID}, &data)
	if err != nil {
		return err
	}
	if len(data.FileDelete.UserErrors) > 0 {
		return fmt.Errorf("host refused deletion: %s", data.FileDelete.UserErrors[0].Message)
	}
	return nil
}
