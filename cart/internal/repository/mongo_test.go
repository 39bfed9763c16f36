package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupMongo(t *testing.T, opts ...testcontainers.ContainerCustomizer) *mongo.Database {
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	c := context.Background()

	container, err := mongodb.Run(c, "mongo:7", opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(c); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(c)
	require.NoError(t, err)

	client, err := mongo.Connect(
		c,
		options.Client().
			ApplyURI(uri).
			SetDirect(true).
			SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(c) })
	require.NoError(t, client.Ping(c, nil))

	return client.Database("testdb")
}

func TestMongoRepository(t *testing.T) {
	db := setupMongo(t)

	testRepository(t, func(t *testing.T) Repository {
		collection := db.Collection("carts")
		require.NoError(t, collection.Drop(context.Background()))

		repo := NewMongoRepository(collection, false)
		require.NoError(t, repo.CreateIndexes(context.Background()))
		return repo
	})
}

func TestMongoRepositoryTransactions(t *testing.T) {
	db := setupMongo(t, mongodb.WithReplicaSet("rs0"))

	testRepository(t, func(t *testing.T) Repository {
		collection := db.Collection("carts")
		require.NoError(t, collection.Drop(context.Background()))

		repo := NewMongoRepository(collection, true)
		require.NoError(t, repo.CreateIndexes(context.Background()))
		return repo
	})
}
