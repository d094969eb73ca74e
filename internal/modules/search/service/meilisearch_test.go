package service

import (
	"testing"
	"time"

	"anoa.com/studentroster/internal/entity"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

func TestBuildDocStripsMarkup(t *testing.T) {
	s := &meiliSearchService{sanitizer: bluemonday.StrictPolicy()}
	addr := "<b>12 Main St</b><br>Springfield &amp; Co"
	student := &entity.Student{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Name:       "Ann <i>Lee</i>",
		RollNumber: "001",
		Class:      "10B",
		Address:    &addr,
		CreatedAt:  time.Unix(1700000000, 0),
	}

	doc := s.buildDoc(student)

	if doc.Name != "Ann Lee" {
		t.Errorf("Name = %q", doc.Name)
	}
	if doc.Address != "12 Main St Springfield & Co" {
		t.Errorf("Address = %q", doc.Address)
	}
	if doc.Email != "" || doc.CreatedAt != 1700000000 {
		t.Errorf("unexpected doc %+v", doc)
	}
}

func TestDecodeHitIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	raw := []byte(`{"hits":[{"id":"` + a.String() + `"},{"id":"junk"},{"id":"` + b.String() + `"}],"query":"ann"}`)

	ids, err := decodeHitIDs(raw)
	if err != nil {
		t.Fatalf("decodeHitIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("ids = %v", ids)
	}
}

func TestOwnerFilterQuotesID(t *testing.T) {
	id := uuid.MustParse("0190c3a4-0000-7000-8000-000000000001")
	if got := ownerFilter(id); got != `user_id = "0190c3a4-0000-7000-8000-000000000001"` {
		t.Fatalf("filter = %s", got)
	}
}
