package server

import (
	"strconv"
	"strings"

	"freebies/internal/models"
	"freebies/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the body of POST /api/posts.
type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"required,category"`
	Latitude    *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Address     string   `json:"address" validate:"max=300"`
	PhotoURL    string   `json:"photo_url" validate:"omitempty,url"`
}

// UpdatePostRequest is the body of PUT /api/posts/:id. Omitted fields are left unchanged.
type UpdatePostRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Category    *string  `json:"category" validate:"omitempty,category"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Address     *string  `json:"address" validate:"omitempty,max=300"`
	PhotoURL    *string  `json:"photo_url" validate:"omitempty,url"`
	IsGone      *bool    `json:"is_gone"`
}

// ReportGoneRequest is the body of POST /api/posts/:id/report-gone.
type ReportGoneRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	PhotoURL  string   `json:"photo_url" validate:"required,url"`
}

// ToggleResponse is returned by the like and got-it toggles.
type ToggleResponse struct {
	Status service.ToggleOutcome `json:"status"`
	Post   *models.Post          `json:"post"`
}

// GetFeed returns the caller's feed.
// @Summary Get feed
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param category query string false "leftovers, new, restaurant or home_made"
// @Param latitude query number false "Viewer latitude"
// @Param longitude query number false "Viewer longitude"
// @Param radius query number false "Radius in km, requires latitude and longitude"
// @Param following_only query bool false "Only posts from followed users"
// @Param skip query int false "Posts to skip" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	filter, err := s.parseFeedFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	posts, err := s.feedService.ComposeFeed(c.UserContext(), currentUserID(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

func (s *Server) parseFeedFilter(c *fiber.Ctx) (service.FeedFilter, error) {
	defaultLimit := s.config.FeedDefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	page := parsePagination(c, defaultLimit)

	filter := service.FeedFilter{
		Category:      models.Category(strings.TrimSpace(c.Query("category"))),
		FollowingOnly: c.QueryBool("following_only", false),
		Skip:          page.Offset,
		Limit:         page.Limit,
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return filter, models.NewValidationError("Invalid category")
	}

	var err error
	if filter.Latitude, err = queryFloat(c, "latitude"); err != nil {
		return filter, err
	}
	if filter.Longitude, err = queryFloat(c, "longitude"); err != nil {
		return filter, err
	}
	if filter.RadiusKm, err = queryFloat(c, "radius"); err != nil {
		return filter, err
	}
	if filter.RadiusKm != nil {
		if *filter.RadiusKm < 0 {
			return filter, models.NewValidationError("radius must not be negative")
		}
		if filter.Latitude == nil || filter.Longitude == nil {
			return filter, models.NewValidationError("radius requires latitude and longitude")
		}
	}
	return filter, nil
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, models.NewValidationError("Invalid " + key)
	}
	return &v, nil
}

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.postService.SearchPosts(c.UserContext(), c.Query("q"), page.Limit, page.Offset, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post by ID
// @Tags Posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post body CreatePostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Category:    models.Category(req.Category),
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Address:     req.Address,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdatePostInput{
		UserID:      currentUserID(c),
		PostID:      id,
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		PhotoURL:    req.PhotoURL,
		IsGone:      req.IsGone,
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		in.Category = &category
	}

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} ToggleResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	outcome, post, err := s.toggleService.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ToggleResponse{Status: outcome, Post: post})
}

// ToggleGotIt handles POST /api/posts/:id/got-it
// @Summary Claim or release an item
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} ToggleResponse
// @Failure 400 {object} models.ErrorResponse "Item no longer available"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/got-it [post]
func (s *Server) ToggleGotIt(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	outcome, post, err := s.toggleService.ToggleGotIt(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ToggleResponse{Status: outcome, Post: post})
}

// GetPostLikes handles GET /api/posts/:id/likes
func (s *Server) GetPostLikes(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.postService.ListLikers(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries(users))
}

// GetPostGotIt handles GET /api/posts/:id/got-it
func (s *Server) GetPostGotIt(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.postService.ListGotIt(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries(users))
}

// HidePost handles POST /api/posts/:id/hide
func (s *Server) HidePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.HidePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post hidden", "hidden": true})
}

// UnhidePost handles DELETE /api/posts/:id/hide
func (s *Server) UnhidePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.UnhidePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post unhidden", "hidden": false})
}

// GetHiddenStatus handles GET /api/posts/:id/hidden-status
func (s *Server) GetHiddenStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	hidden, err := s.postService.IsHidden(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"hidden": hidden})
}

// ReportGone handles POST /api/posts/:id/report-gone
// @Summary Report an item as gone
// @Description The reporter must be standing within 100 meters of the item.
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param report body ReportGoneRequest true "Reporter position and photo"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse "Reporter too far away"
// @Router /posts/{id}/report-gone [post]
func (s *Server) ReportGone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ReportGoneRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.ReportGone(c.UserContext(), service.ReportGoneInput{
		UserID:    currentUserID(c),
		PostID:    id,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}
