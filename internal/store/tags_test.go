package store

import (
	"reflect"
	"testing"
)

func TestAddTagsNormalizes(t *testing.T) {
	db := testDB(t)
	m := mustCreate(t, db, &Memory{Category: "facts", Content: "tagged memory"})

	if err := db.AddTags(m.ID, []string{" Go ", "SQLITE", "go", "", "testing"}); err != nil {
		t.Fatalf("AddTags: %v", err)
	}

	tags, err := db.TagsFor(m.ID)
	if err != nil {
		t.Fatalf("TagsFor: %v", err)
	}
	want := []string{"go", "sqlite", "testing"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestCopyTags(t *testing.T) {
	db := testDB(t)
	src := mustCreate(t, db, &Memory{Category: "facts", Content: "source"})
	dst := mustCreate(t, db, &Memory{Category: "facts", Content: "destination"})

	if err := db.AddTags(src.ID, []string{"alpha", "beta"}); err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if err := db.AddTags(dst.ID, []string{"beta", "gamma"}); err != nil {
		t.Fatalf("AddTags: %v", err)
	}

	if err := db.CopyTags(src.ID, dst.ID); err != nil {
		t.Fatalf("CopyTags: %v", err)
	}

	tags, err := db.TagsFor(dst.ID)
	if err != nil {
		t.Fatalf("TagsFor: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}
