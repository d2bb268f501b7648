// Package docstore keeps projects in MongoDB, one document per project.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"layr/internal/domain"
)

const (
	collectionName = "projects"
	opTimeout      = 10 * time.Second
)

// projectDoc is the stored shape. Data is the project document converted
// from its JSON form so it stays queryable.
type projectDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	UpdatedAt   int64  `bson:"updatedAt"`
	ScreenCount int    `bson:"screenCount"`
	Data        bson.D `bson:"data"`
}

// MongoStore implements domain.ProjectStore.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ domain.ProjectStore = (*MongoStore)(nil)

// Open connects to uri. The database comes from the URI path, defaulting to
// "layr".
func Open(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	dbName := databaseFromURI(uri)
	log.Printf("[STORE] Mongo project store on database %s", dbName)
	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
	}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateProject(p *domain.Project) error {
	if p.UpdatedAt == 0 {
		p.Touch()
	}
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *MongoStore) GetProject(id string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	var doc projectDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get project %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return fromDocument(doc)
}

func (s *MongoStore) ListProjects() ([]domain.ProjectSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.D{{Key: "data", Value: 0}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.ProjectSummary
	for cur.Next(ctx) {
		var doc projectDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		out = append(out, domain.ProjectSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			UpdatedAt:   doc.UpdatedAt,
			ScreenCount: doc.ScreenCount,
		})
	}
	return out, cur.Err()
}

func (s *MongoStore) UpdateProject(p *domain.Project) error {
	if p.UpdatedAt == 0 {
		p.Touch()
	}
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.ID}}, doc)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("project %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteProject(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ── Conversion ───────────────────────────────────────────────

// toDocument goes through the JSON form so field names match the editor's
// schema (rawHtml, strokeWidth, ...) instead of the BSON defaults.
func toDocument(p *domain.Project) (projectDoc, error) {
	data := p.Data
	if data.Screens == nil {
		data.Screens = []domain.ScreenFrame{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return projectDoc{}, fmt.Errorf("encode project data: %w", err)
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &d); err != nil {
		return projectDoc{}, fmt.Errorf("convert project data: %w", err)
	}
	return projectDoc{
		ID:          p.ID,
		Name:        p.Name,
		UpdatedAt:   p.UpdatedAt,
		ScreenCount: len(p.Data.Screens),
		Data:        d,
	}, nil
}

func fromDocument(doc projectDoc) (*domain.Project, error) {
	p := &domain.Project{ID: doc.ID, Name: doc.Name, UpdatedAt: doc.UpdatedAt}
	raw, err := bson.MarshalExtJSON(doc.Data, false, false)
	if err != nil {
		return p, fmt.Errorf("project %s: %w: %v", doc.ID, domain.ErrMalformedData, err)
	}
	data, err := domain.DecodeProjectData(raw)
	if err != nil {
		return p, fmt.Errorf("project %s: %w: %v", doc.ID, domain.ErrMalformedData, err)
	}
	p.Data = data
	return p, nil
}

// databaseFromURI extracts the path segment of a mongodb:// or
// mongodb+srv:// URI.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return "layr"
	}
	name := rest[slash+1:]
	if q := strings.Index(name, "?"); q != -1 {
		name = name[:q]
	}
	if name == "" {
		return "layr"
	}
	return name
}
