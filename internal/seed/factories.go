// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"freebies/internal/geo"
	"freebies/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "password123"

// Options configure the factory and seeder.
type Options struct {
	// DryRun builds entities and assigns synthetic IDs without writing.
	DryRun bool
	// SkipBcrypt stores the plain default password. Tests only.
	SkipBcrypt bool
	BatchSize  int
	// MaxDays bounds how far back created_at timestamps are spread.
	MaxDays int
	// Center and RadiusKm bound where seeded posts are placed.
	Center   geo.Point
	RadiusKm float64
	// RandSeed makes runs reproducible. Zero picks a time based seed.
	RandSeed int64
}

// DefaultCenter is central Berlin.
var DefaultCenter = geo.Point{Lat: 52.5200, Lon: 13.4050}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 30
	}
	if o.Center == (geo.Point{}) {
		o.Center = DefaultCenter
	}
	if o.RadiusKm <= 0 {
		o.RadiusKm = 5
	}
	if o.RandSeed == 0 {
		o.RandSeed = time.Now().UnixNano()
	}
	return o
}

var categories = []models.Category{
	models.CategoryLeftovers,
	models.CategoryNew,
	models.CategoryRestaurant,
	models.CategoryHomeMade,
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the Seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rnd   *rand.Rand
	// bcrypt is slow; every seeded user shares one hash.
	passwordHash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	opts = opts.withDefaults()
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(opts.RandSeed),
		rnd:    rand.New(rand.NewSource(opts.RandSeed)), // #nosec G404
		nextID: 1000,
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.passwordHash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash seed password: %w", err)
		}
		f.passwordHash = string(hashed)
	}
	return f.passwordHash, nil
}

// BuildUser constructs a user located near the seed center without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.password()
	if err != nil {
		return nil, err
	}

	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s%s%d", first, last[:1], f.faker.Number(100, 9999)))
	home := f.RandomPoint()

	user := &models.User{
		Username:          username,
		Email:             username + "@example.com",
		Password:          password,
		DisplayName:       first + " " + last,
		Bio:               f.faker.Sentence(10),
		ProfilePictureURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Latitude:          &home.Lat,
		Longitude:         &home.Lon,
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}

	if f.opts.DryRun {
		user.ID = f.syntheticID()
		slog.Debug("[dry-run] CreateUser", "username", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for owner without persisting it. The item is
// placed within RadiusKm of the seed center and backdated up to MaxDays.
func (f *Factory) BuildPost(owner *models.User, overrides ...func(*models.Post)) *models.Post {
	category := categories[f.rnd.Intn(len(categories))]
	at := f.RandomPoint()

	post := &models.Post{
		Title:       f.itemTitle(category),
		Description: f.faker.Paragraph(1, 3, 8, "\n"),
		Category:    category,
		Latitude:    at.Lat,
		Longitude:   at.Lon,
		Address:     fmt.Sprintf("%s %d", f.faker.Street(), f.faker.Number(1, 120)),
		OwnerID:     owner.ID,
		CreatedAt:   f.RandomTime(),
	}
	if f.rnd.Float64() < 0.7 {
		post.PhotoURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) itemTitle(category models.Category) string {
	switch category {
	case models.CategoryLeftovers:
		return "Leftover " + strings.ToLower(f.faker.Dinner())
	case models.CategoryRestaurant:
		return "End of day " + strings.ToLower(f.faker.Lunch())
	case models.CategoryHomeMade:
		return "Homemade " + strings.ToLower(f.faker.Dessert())
	default:
		return "Unused " + strings.ToLower(f.faker.Noun())
	}
}

// CreatePost constructs and persists a sample post for owner.
func (f *Factory) CreatePost(owner *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(owner, overrides...)

	if f.opts.DryRun {
		post.ID = f.syntheticID()
		slog.Debug("[dry-run] CreatePost", "owner_id", post.OwnerID, "title", post.Title)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in batches of BatchSize.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.syntheticID()
		}
		slog.Debug("[dry-run] CreatePostsBatch", "count", len(posts))
		return nil
	}
	return f.db.CreateInBatches(posts, f.opts.BatchSize).Error
}

// BuildComment constructs a comment from user on post.
func (f *Factory) BuildComment(user *models.User, post *models.Post) *models.Comment {
	return &models.Comment{
		Content:   f.faker.Sentence(f.rnd.Intn(10) + 3),
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: f.RandomTimeAfter(post.CreatedAt),
	}
}

// BuildGotIt records user collecting post. The giver is the post owner.
func (f *Factory) BuildGotIt(user *models.User, post *models.Post) *models.GotIt {
	postID := post.ID
	return &models.GotIt{
		UserID:    user.ID,
		PostID:    &postID,
		GiverID:   post.OwnerID,
		CreatedAt: f.RandomTimeAfter(post.CreatedAt),
	}
}

// RandomPoint returns a point uniformly distributed over the seed disc.
func (f *Factory) RandomPoint() geo.Point {
	distance := f.opts.RadiusKm * math.Sqrt(f.rnd.Float64())
	bearing := f.rnd.Float64() * 2 * math.Pi
	return geo.Offset(f.opts.Center, distance, bearing)
}

// RandomTime returns a timestamp within the last MaxDays.
func (f *Factory) RandomTime() time.Time {
	span := time.Duration(f.opts.MaxDays) * 24 * time.Hour
	return time.Now().Add(-time.Duration(f.rnd.Int63n(int64(span))))
}

// RandomTimeAfter returns a timestamp between t and now.
func (f *Factory) RandomTimeAfter(t time.Time) time.Time {
	span := time.Since(t)
	if span <= 0 {
		return time.Now()
	}
	return t.Add(time.Duration(f.rnd.Int63n(int64(span))))
}

// pick returns up to n distinct users, skipping exclude.
func (f *Factory) pick(users []*models.User, n int, exclude uint) []*models.User {
	picked := make([]*models.User, 0, n)
	for _, i := range f.rnd.Perm(len(users)) {
		if len(picked) == n {
			break
		}
		if users[i].ID == exclude {
			continue
		}
		picked = append(picked, users[i])
	}
	return picked
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}
