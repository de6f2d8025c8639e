// Package mongo stores profiles as documents in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"uk.co.dudmesh.profiles/internal/model"
)

const CollectionProfiles = "profiles"

type profileDocument struct {
	ID             string    `bson:"_id"`
	CreatedAt      time.Time `bson:"createdAt"`
	FirstName      string    `bson:"firstName"`
	LastName       string    `bson:"lastName"`
	DOB            time.Time `bson:"dob"`
	Location       string    `bson:"location"`
	ProfilePicture string    `bson:"profilePicture"`
	Interests      []string  `bson:"interests"`
	Sex            string    `bson:"sex"`
	Email          string    `bson:"email"`
	Passcode       string    `bson:"passcode"`
}

func toDocument(p *model.Profile) *profileDocument {
	id := string(p.ID)
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	return &profileDocument{
		ID:             id,
		CreatedAt:      p.CreatedAt,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DOB:            p.DOB,
		Location:       p.Location,
		ProfilePicture: p.ProfilePicture,
		Interests:      []string(p.Interests),
		Sex:            string(p.Sex),
		Email:          p.Email,
		Passcode:       p.Passcode,
	}
}

func (d *profileDocument) toModel() *model.Profile {
	return &model.Profile{
		ID:             model.ProfileID(d.ID),
		CreatedAt:      d.CreatedAt.UTC(),
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		DOB:            d.DOB.UTC(),
		Location:       d.Location,
		ProfilePicture: d.ProfilePicture,
		Interests:      model.Interests(d.Interests),
		Sex:            model.Sex(d.Sex),
		Email:          d.Email,
		Passcode:       d.Passcode,
	}
}

type profileStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewProfileStore(ctx context.Context, uri, database string) (*profileStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := &profileStore{
		client:     client,
		collection: client.Database(database).Collection(CollectionProfiles),
	}
	if err := s.createIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *profileStore) createIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("profile_email"),
	})
	if err != nil {
		return fmt.Errorf("creating email index: %w", err)
	}
	return nil
}

func (s *profileStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *profileStore) Add(ctx context.Context, profile *model.Profile) (model.ProfileID, error) {
	doc := toDocument(profile)
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", model.ErrorEmailExists
		}
		return "", fmt.Errorf("inserting profile: %w", err)
	}
	return model.ProfileID(doc.ID), nil
}

func (s *profileStore) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *profileStore) Fetch(ctx context.Context, id model.ProfileID) (*model.Profile, error) {
	return s.findOne(ctx, bson.M{"_id": string(id)})
}

func (s *profileStore) findOne(ctx context.Context, filter bson.M) (*model.Profile, error) {
	doc := &profileDocument{}
	err := s.collection.FindOne(ctx, filter).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrorProfileNotFound
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return doc.toModel(), nil
}
