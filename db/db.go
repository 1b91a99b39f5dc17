package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection   *mongo.Collection
	EventsCollection *mongo.Collection
	ClubsCollection  *mongo.Collection
	Client           *mongo.Client
)

// StoreTimeout bounds every call against the document store. Timeouts
// surface as StorageError upstream, never as a hang.
const StoreTimeout = 5 * time.Second

// Ctx returns a bounded context for a single store operation.
func Ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, StoreTimeout)
}

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	UserCollection = Client.Database("clubdb").Collection("users")
	EventsCollection = Client.Database("clubdb").Collection("events")
	ClubsCollection = Client.Database("clubdb").Collection("clubs")
}
