package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		fmt.Println("TEST_MONGO_URI not set, skipping integration tests")
		os.Exit(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	testDB = client.Database("store_test")

	code := m.Run()
	os.Exit(code)
}

func cleanupCollections(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := testDB.Collection(name).Drop(context.Background()); err != nil {
			t.Fatalf("failed to drop collection %s: %v", name, err)
		}
	}
}
