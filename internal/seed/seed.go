package seed

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"freebies/internal/models"

	"gorm.io/gorm"
)

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	GotIts   int
	Follows  int
	Comments int
	Messages int
}

// Seeder populates the database with a connected demo community.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	opts = opts.withDefaults()
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// Factory exposes the underlying entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// Seed creates numUsers users, numPosts posts and a web of interactions
// between them.
func (s *Seeder) Seed(numUsers, numPosts int) (*Summary, error) {
	slog.Info("seeding database", "users", numUsers, "posts", numPosts, "dry_run", s.opts.DryRun)

	users, err := s.SeedUsers(numUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	posts, err := s.SeedPosts(users, numPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed posts: %w", err)
	}
	summary, err := s.SeedInteractions(users, posts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed interactions: %w", err)
	}
	summary.Users = len(users)
	summary.Posts = len(posts)

	slog.Info("seeding complete",
		"users", summary.Users,
		"posts", summary.Posts,
		"likes", summary.Likes,
		"got_its", summary.GotIts,
		"follows", summary.Follows,
		"comments", summary.Comments,
		"messages", summary.Messages,
	)
	return summary, nil
}

// SeedUsers creates n users with unique usernames.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	taken := make(map[string]bool, n)

	for len(users) < n {
		user, err := s.factory.BuildUser()
		if err != nil {
			return nil, err
		}
		if taken[user.Username] {
			continue
		}
		taken[user.Username] = true
		users = append(users, user)
	}

	if err := s.insert(users, func(i int) { users[i].ID = s.factory.syntheticID() }); err != nil {
		return nil, err
	}
	return users, nil
}

// SeedPosts creates n posts owned by random users.
func (s *Seeder) SeedPosts(users []*models.User, n int) ([]*models.Post, error) {
	if n > 0 && len(users) == 0 {
		return nil, fmt.Errorf("cannot seed posts without users")
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		owner := users[s.factory.rnd.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(owner))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SeedInteractions adds likes, got-its, follows and comments between users and
// posts, and mirrors each of them into the receiver's message inbox. Nobody
// interacts with their own post or follows themselves. A quarter of the
// collected posts are marked gone.
func (s *Seeder) SeedInteractions(users []*models.User, posts []*models.Post) (*Summary, error) {
	f := s.factory
	summary := &Summary{}
	if len(users) < 2 {
		return summary, nil
	}

	var (
		likes    []*models.Like
		gotIts   []*models.GotIt
		follows  []*models.Follow
		comments []*models.Comment
		messages []*models.Message
		gone     []uint
	)

	for _, post := range posts {
		postID := post.ID
		maxLikers := min(len(users)-1, 6)

		for _, u := range f.pick(users, f.rnd.Intn(maxLikers+1), post.OwnerID) {
			like := &models.Like{UserID: u.ID, PostID: post.ID, CreatedAt: f.RandomTimeAfter(post.CreatedAt)}
			likes = append(likes, like)
			messages = append(messages, s.message(models.MessageLike, u.ID, post.OwnerID, &postID, "", like.CreatedAt))
		}

		for _, u := range f.pick(users, f.rnd.Intn(4), post.OwnerID) {
			comment := f.BuildComment(u, post)
			comments = append(comments, comment)
			messages = append(messages, s.message(models.MessageComment, u.ID, post.OwnerID, &postID, comment.Content, comment.CreatedAt))
		}

		if f.rnd.Float64() < 0.3 {
			collectors := f.pick(users, f.rnd.Intn(2)+1, post.OwnerID)
			for _, u := range collectors {
				gotIt := f.BuildGotIt(u, post)
				gotIts = append(gotIts, gotIt)
				messages = append(messages, s.message(models.MessageGotIt, u.ID, post.OwnerID, &postID, "", gotIt.CreatedAt))
			}
			if f.rnd.Float64() < 0.25 {
				post.IsGone = true
				gone = append(gone, post.ID)
			}
		}
	}

	for _, follower := range users {
		maxFollowing := min(len(users)-1, 5)
		for _, target := range f.pick(users, f.rnd.Intn(maxFollowing+1), follower.ID) {
			follow := &models.Follow{FollowerID: follower.ID, FollowingID: target.ID, CreatedAt: f.RandomTime()}
			follows = append(follows, follow)
			messages = append(messages, s.message(models.MessageFollow, follower.ID, target.ID, nil, "", follow.CreatedAt))
		}
	}

	for _, batch := range []interface{}{likes, gotIts, follows, comments, messages} {
		if err := s.insert(batch, nil); err != nil {
			return nil, err
		}
	}
	if len(gone) > 0 && !s.opts.DryRun {
		if err := s.db.Model(&models.Post{}).Where("id IN ?", gone).Update("is_gone", true).Error; err != nil {
			return nil, fmt.Errorf("mark posts gone: %w", err)
		}
	}

	summary.Likes = len(likes)
	summary.GotIts = len(gotIts)
	summary.Follows = len(follows)
	summary.Comments = len(comments)
	summary.Messages = len(messages)
	return summary, nil
}

func (s *Seeder) message(kind models.MessageType, sender, receiver uint, postID *uint, content string, at time.Time) *models.Message {
	return &models.Message{
		Type:       kind,
		Content:    content,
		SenderID:   sender,
		ReceiverID: receiver,
		PostID:     postID,
		Read:       s.factory.rnd.Float64() < 0.5,
		CreatedAt:  at,
	}
}

// insert writes a slice of models in batches. In dry-run mode nothing is
// written and assignID, when set, is called for every element instead.
func (s *Seeder) insert(records interface{}, assignID func(i int)) error {
	n := reflect.ValueOf(records).Len()
	if n == 0 {
		return nil
	}
	if s.opts.DryRun {
		if assignID != nil {
			for i := 0; i < n; i++ {
				assignID(i)
			}
		}
		return nil
	}
	return s.db.CreateInBatches(records, s.opts.BatchSize).Error
}

// seededTables lists tables in dependency order, children first.
var seededTables = []string{
	"messages",
	"notifications",
	"comments",
	"hidden_posts",
	"follows",
	"got_its",
	"likes",
	"posts",
	"users",
}

// ClearAll removes every row the seeder (or the API) can create.
func (s *Seeder) ClearAll() error {
	slog.Info("clearing existing data")
	if s.opts.DryRun {
		return nil
	}

	if s.db.Dialector.Name() == "postgres" {
		sql := "TRUNCATE TABLE " + strings.Join(seededTables, ", ") + " RESTART IDENTITY CASCADE"
		return s.db.Exec(sql).Error
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
