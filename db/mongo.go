package db

import (
	"context"
	"errors"
	"fmt"
	"notes-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultMongoDatabase = "NotesApp"

	NotesCollection = "notes"
	UsersCollection = "users"
)

// MongoStore keeps notes and users as two independent collections.
// It's safe to use it concurrently from multiple goroutines.
type MongoStore struct {
	client *mongo.Client
	notes  *mongo.Collection
	users  *mongo.Collection
}

// ConnectMongo dials uri, pings the server and makes sure the unique email index exists.
// The database name is taken from the uri path, DefaultMongoDatabase if it has none.
func ConnectMongo(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongo uri: %w", err)
	}
	name := cs.Database
	if name == "" {
		name = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewMongoStore(client.Database(name))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStore wraps an already connected database. Close on the result is a no-op.
func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		notes: database.Collection(NotesCollection),
		users: database.Collection(UsersCollection),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) InsertNote(ctx context.Context, n *models.Note) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := s.notes.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *MongoStore) ListNotes(ctx context.Context) ([]models.Note, error) {
	cur, err := s.notes.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	notes := []models.Note{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

func (s *MongoStore) FindNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	var n models.Note
	if err := s.notes.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *MongoStore) DeleteNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	var n models.Note
	if err := s.notes.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *MongoStore) UpdateNote(ctx context.Context, id primitive.ObjectID, u models.NoteUpdate) (*models.Note, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n models.Note
	err := s.notes.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": u.SetDoc()}, opts).Decode(&n)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *MongoStore) DeleteAllNotes(ctx context.Context) error {
	_, err := s.notes.DeleteMany(ctx, bson.M{})
	return err
}

func (s *MongoStore) InsertUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	// $push fails on a null array
	if u.Tokens == nil {
		u.Tokens = []models.Token{}
	}
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindUserByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error) {
	return s.findUser(ctx, bson.M{
		"_id":    id,
		"tokens": bson.M{"$elemMatch": bson.M{"access": access, "token": token}},
	})
}

func (s *MongoStore) updateUser(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) PushToken(ctx context.Context, id primitive.ObjectID, t models.Token) error {
	return s.updateUser(ctx, id, bson.M{"$push": bson.M{"tokens": t}})
}

func (s *MongoStore) PullToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateUser(ctx, id, bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}})
}

func (s *MongoStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateUser(ctx, id, bson.M{"$set": bson.M{"password": hash}})
}

func (s *MongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.users.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *MongoStore) DeleteAllUsers(ctx context.Context) error {
	_, err := s.users.DeleteMany(ctx, bson.M{})
	return err
}
