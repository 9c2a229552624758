package feed

import (
	"context"
	"time"

	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/pagination"
)

// CommunityItem is one row of the community search result.
type CommunityItem struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Bio               string    `json:"bio"`
	AvatarURL         string    `json:"avatar_url"`
	BannerURL         string    `json:"banner_url"`
	ParticipantsCount int       `json:"participants_count"`
	CreatedAt         time.Time `json:"created_at"`
	Cursor            string    `json:"cursor"`
}

// CommunityFeed is one page of community search results, most popular first.
type CommunityFeed struct {
	Communities []CommunityItem `json:"communities"`
	pagination.Page
}

type communityRow struct {
	ID                string
	Name              string
	Bio               string
	AvatarURL         string
	BannerURL         string
	ParticipantsCount int
	CreatedAt         time.Time
}

// SearchCommunities returns one page of communities matching the query,
// ordered by ACTIVE member count. The count is computed live over the
// participants table rather than read from the denormalized column, so the
// ordering a cursor was issued against cannot drift from the counter.
func (s *Service) SearchCommunities(ctx context.Context, query, token string, limit int) (*CommunityFeed, error) {
	var cur *pagination.CommunityCursor
	if token != "" {
		c, err := pagination.DecodeCommunityCursor(token)
		if err != nil {
			return nil, err
		}
		cur = &c
	}

	counted := s.db.WithContext(ctx).Model(&model.Community{}).
		Select("communities.id, communities.name, communities.bio, communities.avatar_url, communities.banner_url, communities.created_at, "+
			"(SELECT COUNT(*) FROM participants WHERE participants.community_id = communities.id AND participants.status = ?) AS participants_count",
			model.ParticipantActive)

	q := s.db.WithContext(ctx).Table("(?) AS communities", counted)
	if query != "" {
		q = q.Where("LOWER(communities.name) LIKE LOWER(?)", "%"+query+"%")
	}

	var rows []communityRow
	err := q.
		Scopes(pagination.CommunityKeyset("communities", cur)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]CommunityItem, len(rows))
	tokens := make([]string, len(rows))
	for i, r := range rows {
		tokens[i] = pagination.CommunityCursor{
			ParticipantsCount: r.ParticipantsCount,
			ID:                r.ID,
			CreatedAt:         r.CreatedAt,
		}.Encode()
		items[i] = CommunityItem{
			ID:                r.ID,
			Name:              r.Name,
			Bio:               r.Bio,
			AvatarURL:         r.AvatarURL,
			BannerURL:         r.BannerURL,
			ParticipantsCount: r.ParticipantsCount,
			CreatedAt:         r.CreatedAt,
			Cursor:            tokens[i],
		}
	}
	return &CommunityFeed{
		Communities: items,
		Page:        pagination.DeriveListPage(tokens, limit),
	}, nil
}
