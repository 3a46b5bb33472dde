package service

import (
	"context"
	"fmt"
	"time"

	"a2g/internal/entitlement"
	"a2g/internal/model"
	"a2g/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const noteURLExpiry = 15 * time.Minute

// CatalogueEntry is an item as seen by a particular user.
type CatalogueEntry struct {
	model.Item
	Locked bool `json:"locked"`
}

// AccessService gates premium content behind the entitlement rules.
type AccessService interface {
	// CheckAccess returns the item when the user may open it, ErrAccessDenied otherwise.
	CheckAccess(ctx context.Context, userID, itemID string) (*model.Item, error)
	// NoteDownloadURL returns a short-lived URL for the note file once access is granted.
	NoteDownloadURL(ctx context.Context, userID, noteID string) (string, time.Time, error)
	ListItems(ctx context.Context, userID string, kind model.ItemKind, limit, offset int) ([]CatalogueEntry, error)
}

type accessService struct {
	users         repository.UserRepository
	items         repository.ItemRepository
	presignClient *s3.PresignClient
	bucketName    string
	now           func() time.Time
	logger        zerolog.Logger
}

func NewAccessService(
	users repository.UserRepository,
	items repository.ItemRepository,
	s3Client *s3.Client,
	bucketName string,
	logger zerolog.Logger,
) AccessService {
	return &accessService{
		users:         users,
		items:         items,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		now:           time.Now,
		logger:        logger.With().Str("service", "AccessService").Logger(),
	}
}

func (s *accessService) CheckAccess(ctx context.Context, userID, itemID string) (*model.Item, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, upstream("load item", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if !item.IsPremium {
		return item, nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, upstream("load user", err)
	}
	if !entitlement.HasAccess(user, item, s.now()) {
		s.logger.Debug().Str("user_id", userID).Str("item_id", itemID).Msg("Access denied to premium item")
		return nil, ErrAccessDenied
	}
	return item, nil
}

func (s *accessService) NoteDownloadURL(ctx context.Context, userID, noteID string) (string, time.Time, error) {
	item, err := s.CheckAccess(ctx, userID, noteID)
	if err != nil {
		return "", time.Time{}, err
	}
	if item.Kind != model.ItemKindNote || item.StoragePath == "" {
		return "", time.Time{}, fmt.Errorf("%w: %s is not a downloadable note", ErrItemNotFound, noteID)
	}

	expires := s.now().Add(noteURLExpiry)
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(item.StoragePath),
	}, s3.WithPresignExpires(noteURLExpiry))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", item.StoragePath).Msg("Failed to generate presigned URL")
		return "", time.Time{}, upstream("presign note", err)
	}
	return resp.URL, expires, nil
}

func (s *accessService) ListItems(ctx context.Context, userID string, kind model.ItemKind, limit, offset int) ([]CatalogueEntry, error) {
	items, err := s.items.ListItems(ctx, kind, limit, offset)
	if err != nil {
		return nil, upstream("list items", err)
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, upstream("load user", err)
	}
	now := s.now()
	entries := make([]CatalogueEntry, 0, len(items))
	for i := range items {
		entries = append(entries, CatalogueEntry{
			Item:   items[i],
			Locked: !entitlement.HasAccess(user, &items[i], now),
		})
	}
	return entries, nil
}
