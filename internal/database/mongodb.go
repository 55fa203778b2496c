package database

import (
	"context"
	"fmt"
	"net"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

type serverStatus struct {
	Opcounters struct {
		Query  int64 `bson:"query"`
		Update int64 `bson:"update"`
	} `bson:"opcounters"`
}

func openMongo(opts Options) (*mongoBackend, error) {
	uri := "mongodb://" + net.JoinHostPort(opts.Host, "27017")
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to open mongodb: %w", err)
	}
	return &mongoBackend{
		client: client,
		db:     client.Database(opts.Name),
	}, nil
}

func (b *mongoBackend) Name() string { return "mongodb" }

func (b *mongoBackend) Margin() float64 { return 1 }

func (b *mongoBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, nil)
}

func (b *mongoBackend) Close() error {
	return b.client.Disconnect(context.Background())
}

func (b *mongoBackend) status(ctx context.Context) (*serverStatus, error) {
	var status serverStatus
	err := b.client.Database("admin").RunCommand(ctx, bson.D{{Key: "serverStatus", Value: 1}}).Decode(&status)
	if err != nil {
		return nil, fmt.Errorf("failed to read serverStatus: %w", err)
	}
	return &status, nil
}

// rowsPerQuery is the number of documents one find returns for table
func (b *mongoBackend) rowsPerQuery(ctx context.Context, table string) (int64, error) {
	if table != TableFortune {
		return 1, nil
	}
	n, err := b.db.Collection(TableFortune).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count fortunes: %w", err)
	}
	return n, nil
}

func (b *mongoBackend) CountAllQueries(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	status, err := b.status(ctx)
	if err != nil {
		return 0, err
	}
	return status.Opcounters.Query + status.Opcounters.Update, nil
}

func (b *mongoBackend) CountRowsSelected(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	status, err := b.status(ctx)
	if err != nil {
		return 0, err
	}
	perQuery, err := b.rowsPerQuery(ctx, table)
	if err != nil {
		return 0, err
	}
	return status.Opcounters.Query * perQuery, nil
}

func (b *mongoBackend) CountRowsUpdated(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	status, err := b.status(ctx)
	if err != nil {
		return 0, err
	}
	perQuery, err := b.rowsPerQuery(ctx, table)
	if err != nil {
		return 0, err
	}
	return status.Opcounters.Update * perQuery, nil
}

func (b *mongoBackend) SnapshotWorldTable(ctx context.Context) (map[int32]int32, error) {
	cursor, err := b.db.Collection(TableWorld).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to read world collection: %w", err)
	}
	defer cursor.Close(ctx)

	world := make(map[int32]int32, 10000)
	for cursor.Next(ctx) {
		var row struct {
			ID           int32 `bson:"id"`
			RandomNumber int32 `bson:"randomNumber"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode world document: %w", err)
		}
		world[row.ID] = row.RandomNumber
	}
	return world, cursor.Err()
}

func (b *mongoBackend) InsertFixtureFortunes(ctx context.Context, count int) error {
	docs := make([]any, 0, count)
	for i := 0; i < count; i++ {
		id := FixtureFortuneFirstID + i
		docs = append(docs, bson.D{
			{Key: "_id", Value: id},
			{Key: "id", Value: id},
			{Key: "message", Value: FixtureFortuneMessage},
		})
	}
	if _, err := b.db.Collection(TableFortune).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert fortunes: %w", err)
	}
	return nil
}
