package container

import (
	"log/slog"

	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/live"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/services"
	"github.com/foroapp/server/internal/store/mongostore"
)

const documentsCollection = "documents"

// Container holds all application dependencies. Every component gets its
// collaborators here; nothing reaches for a package-level client.
type Container struct {
	Logger         *slog.Logger
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client

	Identity identity.Provider
	UserRepo models.UserRepo

	EventService      *services.EventService
	AttendanceService *services.AttendanceService
	RatingService     *services.RatingService
	CommentService    *services.CommentService

	CountPool *live.CountPool
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	dbName string,
) *Container {
	ds := mongostore.New(mongoDBClient, dbName, documentsCollection)
	repo := models.NewStoreRepo(ds)
	provider := identity.NewSupabaseProvider(supabaseClient)

	eventService := services.NewEventService(repo, provider)
	attendanceService := services.NewAttendanceService(repo, provider)
	ratingService := services.NewRatingService(repo, provider)
	commentService := services.NewCommentService(repo, provider)

	return &Container{
		Logger:            logger,
		SupabaseClient:    supabaseClient,
		MongoDBClient:     mongoDBClient,
		Identity:          provider,
		UserRepo:          repo,
		EventService:      eventService,
		AttendanceService: attendanceService,
		RatingService:     ratingService,
		CommentService:    commentService,
		CountPool:         live.NewCountPool(attendanceService),
	}
}

// Close tears down the pooled live subscriptions.
func (c *Container) Close() {
	c.CountPool.Close()
}
