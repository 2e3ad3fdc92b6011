package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uploadRootFolder = "portfolio-builder"

type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Uploader is the asset gateway. File contents are never inspected.
type Uploader interface {
	Upload(ctx context.Context, folder, filename string, data io.Reader) (*UploadResult, error)
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, folder, _ string, data io.Reader) (*UploadResult, error) {
	res, err := u.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder: folder,
		Tags:   []string{uploadRootFolder},
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return &UploadResult{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

type SupabaseUploader struct {
	repo *models.SupabaseRepo
}

func NewSupabaseUploader(repo *models.SupabaseRepo) *SupabaseUploader {
	return &SupabaseUploader{repo: repo}
}

// Upload names the object with a random id so that repeated uploads of the
// same file never overwrite each other.
func (u *SupabaseUploader) Upload(ctx context.Context, folder, filename string, data io.Reader) (*UploadResult, error) {
	objectPath := path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	url, err := u.repo.UploadObject(ctx, objectPath, data)
	if err != nil {
		return nil, err
	}
	return &UploadResult{URL: url, PublicID: objectPath}, nil
}

type UploadService struct {
	uploader Uploader
	logger   *slog.Logger
}

func NewUploadService(uploader Uploader, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{uploader: uploader, logger: logger}
}

// UploadAsset stores a file under the caller's folder. Nothing references the
// asset until the owner saves its URL into a section.
func (s *UploadService) UploadAsset(ctx context.Context, userID primitive.ObjectID, filename string, data io.Reader) (*UploadResult, error) {
	if data == nil {
		return nil, models.ValidationFailed("no file uploaded")
	}
	folder := path.Join(uploadRootFolder, userID.Hex())
	res, err := s.uploader.Upload(ctx, folder, filename, data)
	if err != nil {
		s.logger.Error("asset upload failed",
			slog.String("user_id", userID.Hex()),
			slog.Any("error", err),
		)
		return nil, models.Upstream("failed to upload file", err)
	}
	return res, nil
}
