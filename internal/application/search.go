package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/grymm/barber-auth/internal/domain/entity"
)

// indexUser mirrors the identity into Elasticsearch for the admin search
// endpoint. Indexing is best-effort; a failure is logged and never fails
// the calling flow.
func (s *AuthService) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESIndex == "" || u == nil {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"role":       u.Role.String(),
		"is_active":  u.IsActive,
		"is_staff":   u.IsStaff,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// AdminUser is the projection returned by the admin listing.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers serves the admin user listing. When Elasticsearch is configured
// and a query is given it searches the index; otherwise it falls back to a
// Postgres listing filtered by email substring.
func (s *AuthService) ListUsers(ctx context.Context, query string, size int) ([]AdminUser, error) {
	if size <= 0 || size > 100 {
		size = 50
	}

	if s.ES != nil && s.ESIndex != "" && query != "" {
		if out, err := s.searchUsersES(ctx, query, size); err == nil {
			return out, nil
		} else if s.Logger != nil {
			s.Logger.WithError(err).Warn("es search failed, falling back to postgres")
		}
	}

	users, err := s.Users.List(ctx, query, size)
	if err != nil {
		return nil, err
	}
	out := make([]AdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, AdminUser{
			ID:        u.ID,
			Email:     u.Email,
			Role:      u.Role.String(),
			IsActive:  u.IsActive,
			IsStaff:   u.IsStaff,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (s *AuthService) searchUsersES(ctx context.Context, q string, size int) ([]AdminUser, error) {
	body := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"email": q,
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(body)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source AdminUser `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]AdminUser, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
