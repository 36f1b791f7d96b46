package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"soundcrew/internal/models"
)

const (
	defaultContentType = "application/octet-stream"
	uploadURLTTL       = 60 * time.Second
	defaultViewTTL     = 900
)

var unsafeNameRe = regexp.MustCompile(`[^\w.\-ㄱ-힣 ]+`)

// Presigner signs object storage URLs. utils.S3Presigner satisfies it.
type Presigner interface {
	Bucket() string
	Region() string
	PresignPut(key, contentType string, ttl time.Duration) (string, error)
	PresignGet(key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

type UploadService struct {
	Presigner Presigner
}

func SanitizeFileName(name string) string {
	return unsafeNameRe.ReplaceAllString(name, "_")
}

func normalizeKey(key string) string {
	return strings.TrimLeft(key, "/")
}

// Presign prepares a client-direct upload. With an explicit key the object is
// signed as is; otherwise a unique key is derived from folder and file name.
func (s *UploadService) Presign(in models.PresignInput) (models.PresignResult, error) {
	if s.Presigner == nil || s.Presigner.Bucket() == "" {
		return models.PresignResult{}, models.ErrMissingBucket
	}
	if s.Presigner.Region() == "" {
		return models.PresignResult{}, models.ErrMissingRegion
	}

	res := models.PresignResult{
		Bucket:      s.Presigner.Bucket(),
		Region:      s.Presigner.Region(),
		ContentType: defaultContentType,
	}
	if ct := strings.TrimSpace(in.ContentType); ct != "" {
		res.ContentType = ct
	}

	if in.Key != "" {
		res.Mode = "direct"
		res.Key = normalizeKey(in.Key)
	} else {
		if in.FileName == "" {
			return models.PresignResult{}, models.ErrMissingFileName
		}
		res.Mode = "legacy"
		res.FileName = SanitizeFileName(in.FileName)
		prefix := ""
		if in.Folder != "" {
			prefix = strings.TrimRight(in.Folder, "/") + "/"
		}
		res.Key = normalizeKey(prefix + uuid.NewString() + "-" + res.FileName)
	}

	uploadURL, err := s.Presigner.PresignPut(res.Key, res.ContentType, uploadURLTTL)
	if err != nil {
		return models.PresignResult{}, err
	}
	res.UploadURL = uploadURL
	res.PublicURL = s.Presigner.PublicURL(res.Key)

	if in.WantViewURL {
		ttl := defaultViewTTL
		if in.ViewTTL != nil {
			ttl = *in.ViewTTL
		}
		viewURL, err := s.Presigner.PresignGet(res.Key, time.Duration(ttl)*time.Second)
		if err != nil {
			return models.PresignResult{}, err
		}
		res.ViewURL = &viewURL
	}
	return res, nil
}
