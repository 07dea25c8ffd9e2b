// routes/routes.go
package routes

import (
	"codesync/config"
	"codesync/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServiceContainer holds all services and dependencies
type ServiceContainer struct {
	DB          *mongo.Database
	Config      *config.Config
	AuthService *services.AuthService
	RoomService *services.RoomService
	RecordStore services.RecordStore
	RoomStore   services.RoomStore
}

// NewServiceContainer creates a new service container with all dependencies initialized
func NewServiceContainer(db *mongo.Database, cfg *config.Config) *ServiceContainer {
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiration)
	recordStore := services.NewMongoRecordStore(db, cfg.StoreWriteTimeout)
	roomStore := services.NewMongoRoomStore(db, cfg.StoreWriteTimeout)
	roomService := services.NewRoomService(roomStore, recordStore, authService)

	return &ServiceContainer{
		DB:          db,
		Config:      cfg,
		AuthService: authService,
		RoomService: roomService,
		RecordStore: recordStore,
		RoomStore:   roomStore,
	}
}

// SetupRoutes configures all API routes for the application
// This function is called from main.go after middleware is already set up
func SetupRoutes(api *gin.RouterGroup, container *ServiceContainer) {
	RegisterAuthRoutes(api, container)
	RegisterRoomRoutes(api, container)
	RegisterFileSystemRoutes(api, container)
}
