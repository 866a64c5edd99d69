// Package media hosts user avatars on Cloudinary.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Uploader interface {
	// UploadAvatar stores the image under a per-user public ID and returns
	// the 250x250 face-cropped delivery URL.
	UploadAvatar(ctx context.Context, userEmail string, file io.Reader) (string, error)
	// DeleteAvatar removes the user's stored image.
	DeleteAvatar(ctx context.Context, userEmail string) error
}

type cloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader builds an Uploader from a cloudinary:// credentials
// URL. Uploads land under the given folder.
func NewCloudinaryUploader(cloudinaryURL, folder string) (Uploader, error) {
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	client.Config.URL.Secure = true

	return &cloudinaryUploader{
		client: client,
		folder: folder,
	}, nil
}

func (u *cloudinaryUploader) publicID(userEmail string) string {
	return u.folder + "/" + userEmail
}

func (u *cloudinaryUploader) UploadAvatar(ctx context.Context, userEmail string, file io.Reader) (string, error) {
	resp, err := u.client.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:  u.publicID(userEmail),
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	image, err := u.client.Image(resp.PublicID)
	if err != nil {
		return "", fmt.Errorf("failed to build avatar URL: %w", err)
	}
	image.Transformation = "w_250,h_250,c_fill,g_face"

	avatarURL, err := image.String()
	if err != nil {
		return "", fmt.Errorf("failed to build avatar URL: %w", err)
	}
	return avatarURL, nil
}

func (u *cloudinaryUploader) DeleteAvatar(ctx context.Context, userEmail string) error {
	_, err := u.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: u.publicID(userEmail),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}
