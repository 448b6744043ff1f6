package database

import (
	"context"
	"log"
	"time"

	"clinicdesk/config"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// InitDB initializes the MongoDB connection.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping MongoDB: %v", err)
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")
}

// Database returns the configured application database.
func Database() *mongo.Database {
	name := config.AppConfig.DatabaseName
	if name == "" {
		name = "clinicdesk"
	}
	return MongoClient.Database(name)
}

// Collection is shorthand for Database().Collection(name).
func Collection(name string) *mongo.Collection {
	return Database().Collection(name)
}

// WithTransaction runs fn inside a multi-document transaction. Every write made
// through sc commits together or not at all.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer session.EndSession(ctx)

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return errors.Wrap(err, "start transaction")
		}
		if err := fn(sc); err != nil {
			if abortErr := sc.AbortTransaction(sc); abortErr != nil {
				return errors.WithSecondaryError(err, abortErr)
			}
			return err
		}
		if err := sc.CommitTransaction(sc); err != nil {
			return errors.Wrap(err, "commit transaction")
		}
		return nil
	})
}

// Disconnect closes the global client.
func Disconnect(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}
