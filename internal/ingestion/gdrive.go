package ingestion

import (
	"context"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveClient downloads PDFs from Google Drive on behalf of a user.
type DriveClient struct {
	Config *oauth2.Config
	Token  *oauth2.Token
}

// NewOAuthConfig returns the read-only Drive OAuth2 configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{drive.DriveReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// Fetch downloads a Drive file and returns its name and content.
func (d *DriveClient) Fetch(ctx context.Context, fileID string) (string, []byte, error) {
	if d == nil || d.Token == nil || d.Token.AccessToken == "" {
		return "", nil, eris.New("google drive: no access token configured")
	}

	client := d.Config.Client(ctx, d.Token)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", nil, eris.Wrap(err, "google drive: create service")
	}

	meta, err := srv.Files.Get(fileID).Fields("name", "mimeType").Context(ctx).Do()
	if err != nil {
		return "", nil, eris.Wrapf(err, "google drive: get file %s", fileID)
	}
	if meta.MimeType != "application/pdf" {
		return "", nil, eris.Errorf("google drive: %s is %s, not a PDF", meta.Name, meta.MimeType)
	}

	resp, err := srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", nil, eris.Wrapf(err, "google drive: download %s", fileID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, eris.Errorf("google drive: download failed with status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, eris.Wrap(err, "google drive: read body")
	}
	return meta.Name, data, nil
}
