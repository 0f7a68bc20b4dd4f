package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/secacademy/academy-admin/pkg/models"
)

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string          `json:"token"`
	Admin json.RawMessage `json:"admin"`
}

// Login exchanges operator credentials for a bearer token
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/admin/login",
		Body:   map[string]string{"username": username, "password": password},
	}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, &Error{Kind: KindRejected, Message: "login response carried no token"}
	}
	if len(out.Admin) == 0 {
		out.Admin = json.RawMessage(`{}`)
	}
	return out, nil
}

// Dashboard returns the aggregate platform statistics
func (c *Client) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var out struct {
		Stats models.DashboardStats `json:"stats"`
	}
	if err := c.Do(ctx, Request{Path: "/api/admin/dashboard"}, &out); err != nil {
		return models.DashboardStats{}, err
	}
	return out.Stats, nil
}

// Users returns one page of users matching q
func (c *Client) Users(ctx context.Context, q listing.Query) (listing.Page[models.User], error) {
	var out struct {
		Users      []models.User     `json:"users"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := c.Do(ctx, Request{Path: "/api/admin/users", Query: q.Values()}, &out); err != nil {
		return listing.Page[models.User]{}, err
	}
	return listing.Page[models.User]{
		Rows:  out.Users,
		Total: out.Pagination.Total,
		Pages: out.Pagination.Pages,
	}, nil
}

// User returns the detail record of one user
func (c *Client) User(ctx context.Context, id int64) (models.UserDetail, error) {
	var out models.UserDetail
	if err := c.Do(ctx, Request{Path: fmt.Sprintf("/api/admin/users/%d", id)}, &out); err != nil {
		return models.UserDetail{}, err
	}
	return out, nil
}

// AdjustPoints adds or subtracts points for a user
func (c *Client) AdjustPoints(ctx context.Context, id int64, adj models.PointsAdjustment) error {
	if err := adj.Validate(); err != nil {
		return &Error{Kind: KindRejected, Message: err.Error()}
	}
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/admin/users/%d/points", id),
		Body:   adj,
	}, nil)
}

// Lessons returns every lesson. The endpoint is not paginated, so the
// result is always a single page and q is ignored.
func (c *Client) Lessons(ctx context.Context, q listing.Query) (listing.Page[models.Lesson], error) {
	var out struct {
		Lessons []models.Lesson `json:"lessons"`
	}
	if err := c.Do(ctx, Request{Path: "/api/admin/lessons"}, &out); err != nil {
		return listing.Page[models.Lesson]{}, err
	}
	return listing.SinglePage(out.Lessons), nil
}

// News returns one page of news items. The endpoint has no search filter.
func (c *Client) News(ctx context.Context, q listing.Query) (listing.Page[models.News], error) {
	q.Search = ""
	var out struct {
		News       []models.News     `json:"news"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := c.Do(ctx, Request{Path: "/api/admin/news", Query: q.Values()}, &out); err != nil {
		return listing.Page[models.News]{}, err
	}
	return listing.Page[models.News]{
		Rows:  out.News,
		Total: out.Pagination.Total,
		Pages: out.Pagination.Pages,
	}, nil
}
