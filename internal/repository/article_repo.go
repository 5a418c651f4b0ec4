package repository

import (
	"context"
	"errors"

	"github.com/user/knowlife/internal/entity"
)

// ErrNotFound is returned by lookups that match no stored record.
var ErrNotFound = errors.New("record not found")

// ArticleRepository defines the interface for storing and retrieving crawled article content.
type ArticleRepository interface {
	// Save stores the article for a URL. If the URL already exists, it is updated.
	Save(ctx context.Context, article *entity.Article) error
	// FindByURL retrieves the article for a specific URL, or ErrNotFound.
	FindByURL(ctx context.Context, url string) (*entity.Article, error)
}
