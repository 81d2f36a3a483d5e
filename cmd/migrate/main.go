package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/wms-platform/stock-service/internal/config"
	mongoRepo "github.com/wms-platform/stock-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/stock-service/pkg/cloudevents"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/mongodb"
)

// Creates the collections and indexes the stock service relies on. Safe to
// run repeatedly.

var (
	mongoURI = flag.String("mongo-uri", "", "MongoDB connection URI (defaults to MONGODB_URI)")
	dbName   = flag.String("db", "", "Database name (defaults to MONGODB_DATABASE)")
	timeout  = flag.Duration("timeout", time.Minute, "Overall timeout")
	list     = flag.Bool("list", false, "Print the indexes of every collection afterwards")
)

func main() {
	flag.Parse()

	logger := logging.New(logging.DefaultConfig("stock-migrate"))

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if *mongoURI != "" {
		cfg.MongoDB.URI = *mongoURI
	}
	if *dbName != "" {
		cfg.MongoDB.Database = *dbName
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mongoCfg := mongodb.DefaultConfig()
	mongoCfg.URI = cfg.MongoDB.URI
	mongoCfg.Database = cfg.MongoDB.Database

	client, err := mongodb.NewClient(ctx, mongoCfg)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer client.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", mongoCfg.Database)

	store := mongoRepo.NewStore(client, nil, cloudevents.NewEventFactory(cloudevents.SourceStockService), 0)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Migration failed")
		os.Exit(1)
	}
	logger.Info("Indexes ensured")

	if *list {
		if err := printIndexes(ctx, client, logger); err != nil {
			logger.WithError(err).Error("Failed to list indexes")
			os.Exit(1)
		}
	}

	logger.Info("Migration completed successfully")
}

func printIndexes(ctx context.Context, client *mongodb.Client, logger *logging.Logger) error {
	db := client.Database()
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}
	for _, name := range names {
		specs, err := db.Collection(name).Indexes().ListSpecifications(ctx)
		if err != nil {
			return err
		}
		for _, spec := range specs {
			logger.Info("Index", "collection", name, "name", spec.Name, "keys", spec.KeysDocument.String(), "unique", spec.Unique != nil && *spec.Unique)
		}
	}
	return nil
}
