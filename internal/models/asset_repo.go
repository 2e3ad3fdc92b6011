package models

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// UploadObject stores data under objectPath in the configured bucket and
// returns its public URL.
func (su *SupabaseRepo) UploadObject(ctx context.Context, objectPath string, data io.Reader) (string, error) {
	if su.supabaseClient == nil || su.supabaseClient.Storage == nil {
		return "", fmt.Errorf("supabase storage is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := su.supabaseClient.Storage.UploadFile(su.bucket, objectPath, data); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	if public := su.supabaseClient.Storage.GetPublicUrl(su.bucket, objectPath); public.SignedURL != "" {
		return public.SignedURL, nil
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(su.url, "/"), su.bucket, objectPath), nil
}
