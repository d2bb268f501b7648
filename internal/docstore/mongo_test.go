package docstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"layr/internal/domain"
)

func TestDocumentConversion(t *testing.T) {
	p := &domain.Project{
		ID:        "p1",
		Name:      "Fitness",
		UpdatedAt: 42,
		Data: domain.ProjectData{
			Screens: []domain.ScreenFrame{{ID: "f1", Name: "Home", Content: `<div class="p-4">x</div>`, Height: 812, X: 12.5, Y: -3}},
			Annotations: domain.Annotations{
				Shapes: []domain.Shape{{ID: "sh", Kind: domain.ShapeCircle, Color: "#fff", Rect: domain.Rect{X: 1, Y: 2, Width: 30, Height: 40}}},
			},
		},
	}
	doc, err := toDocument(p)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ScreenCount != 1 || doc.ID != "p1" {
		t.Errorf("doc = %+v", doc)
	}
	var keys []string
	for _, e := range doc.Data {
		keys = append(keys, e.Key)
	}
	if len(keys) != 2 || keys[0] != "screens" || keys[1] != "annotations" {
		t.Errorf("data keys = %v", keys)
	}

	got, err := fromDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	f := got.Data.Screens[0]
	if f.Content != p.Data.Screens[0].Content || f.X != 12.5 || f.Y != -3 || f.Height != 812 {
		t.Errorf("frame = %+v", f)
	}
	if s := got.Data.Annotations.Shapes; len(s) != 1 || s[0].Width != 30 || s[0].Kind != domain.ShapeCircle {
		t.Errorf("shapes = %+v", s)
	}
}

func TestFromDocumentMalformed(t *testing.T) {
	doc := projectDoc{ID: "bad", Name: "Broken", Data: bson.D{{Key: "screens", Value: "not a list"}}}
	p, err := fromDocument(doc)
	if !errors.Is(err, domain.ErrMalformedData) {
		t.Fatalf("err = %v", err)
	}
	if p.Name != "Broken" || len(p.Data.Screens) != 0 {
		t.Errorf("project = %+v", p)
	}
}

func TestDatabaseFromURI(t *testing.T) {
	tests := []struct{ uri, want string }{
		{"mongodb://localhost:27017", "layr"},
		{"mongodb://localhost:27017/", "layr"},
		{"mongodb://u:p@localhost:27017/mockups", "mockups"},
		{"mongodb+srv://u:p@cluster0.x.net/designs?retryWrites=true", "designs"},
		{"mongodb://u:p@h1,h2/?replicaSet=rs0", "layr"},
	}
	for _, tt := range tests {
		if got := databaseFromURI(tt.uri); got != tt.want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
