package projection

import (
	"reflect"
	"testing"

	"anoa.com/studentroster/internal/roster/model"
)

func str(s string) *string { return &s }

func names(records []model.Student) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestApplyBobAnnScenario(t *testing.T) {
	records := []model.Student{
		{ID: "1", Name: "Bob", RollNumber: "002", Class: "10A"},
		{ID: "2", Name: "Ann", RollNumber: "001", Class: "10B"},
	}
	f := model.DefaultFilters()

	if got := names(Apply(records, f)); !reflect.DeepEqual(got, []string{"Ann", "Bob"}) {
		t.Fatalf("asc = %v", got)
	}

	f.SortOrder = model.SortDesc
	if got := names(Apply(records, f)); !reflect.DeepEqual(got, []string{"Bob", "Ann"}) {
		t.Fatalf("desc = %v", got)
	}

	f.Class = "10B"
	if got := names(Apply(records, f)); !reflect.DeepEqual(got, []string{"Ann"}) {
		t.Fatalf("class filter = %v", got)
	}

	if records[0].Name != "Bob" {
		t.Fatal("Apply must not reorder its input")
	}
}

func TestApplySearch(t *testing.T) {
	records := []model.Student{
		{ID: "1", Name: "Ann Lee", RollNumber: "A-17", Class: "10A"},
		{ID: "2", Name: "Bob", RollNumber: "B-02", Class: "10A", Email: str("bob.LEE@school.edu")},
		{ID: "3", Name: "Cy", RollNumber: "C-03", Class: "10B"},
		{ID: "4", Name: "Dee", RollNumber: "D-04", Class: "10B", Email: str("dee@school.edu")},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"lee", []string{"Ann Lee", "Bob"}},
		{"LEE", []string{"Ann Lee", "Bob"}},
		{"c-0", []string{"Cy"}},
		{"school", []string{"Bob", "Dee"}},
		{"cy", []string{"Cy"}},
		{"nobody", []string{}},
		{"", []string{"Ann Lee", "Bob", "Cy", "Dee"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := model.DefaultFilters()
			f.Search = tt.query
			if got := names(Apply(records, f)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestApplySortByRollNumber(t *testing.T) {
	records := []model.Student{
		{ID: "1", Name: "A", RollNumber: "003"},
		{ID: "2", Name: "B", RollNumber: "001"},
		{ID: "3", Name: "C", RollNumber: "002"},
	}
	f := model.Filters{SortBy: model.SortByRollNumber, SortOrder: model.SortAsc}
	if got := names(Apply(records, f)); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Fatalf("roll asc = %v", got)
	}
}

func TestApplyIsLocaleAware(t *testing.T) {
	records := []model.Student{
		{ID: "1", Name: "zoe"},
		{ID: "2", Name: "Émile"},
		{ID: "3", Name: "adam"},
	}
	got := names(Apply(records, model.DefaultFilters()))
	if !reflect.DeepEqual(got, []string{"adam", "Émile", "zoe"}) {
		t.Fatalf("got %v", got)
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	records := []model.Student{
		{ID: "1", Name: "Sam", RollNumber: "1"},
		{ID: "2", Name: "Sam", RollNumber: "2"},
		{ID: "3", Name: "Al", RollNumber: "3"},
	}
	f := model.DefaultFilters()
	first := Apply(records, f)
	for i := 0; i < 10; i++ {
		if got := Apply(records, f); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestClasses(t *testing.T) {
	records := []model.Student{
		{Class: "10B"}, {Class: "10A"}, {Class: "10B"}, {Class: "9C"},
	}
	if got := Classes(records); !reflect.DeepEqual(got, []string{"10A", "10B", "9C"}) {
		t.Fatalf("Classes = %v", got)
	}
	if got := Classes(nil); len(got) != 0 {
		t.Fatalf("Classes(nil) = %v", got)
	}
}
