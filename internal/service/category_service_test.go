package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lumipure-api/internal/repository"
)

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func uintPtr(v uint) *uint { return &v }

func TestCategorySlugRegeneratedOnlyOnNameChange(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))

	created, err := svc.Create(CategoryInput{Name: strPtr("  Face & Body Care ")})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if created.Slug != "face-body-care" || created.Name != "Face & Body Care" {
		t.Fatalf("unexpected category: %+v", created)
	}
	if !created.IsActive {
		t.Fatalf("new category should be active")
	}

	updated, err := svc.Update(created.ID, CategoryInput{Description: strPtr("all the lotions")})
	if err != nil {
		t.Fatalf("update description failed: %v", err)
	}
	if updated.Slug != "face-body-care" {
		t.Fatalf("slug should be unchanged without rename, got %s", updated.Slug)
	}

	updated, err = svc.Update(created.ID, CategoryInput{Name: strPtr("Body Care")})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if updated.Slug != "body-care" {
		t.Fatalf("slug should follow the new name, got %s", updated.Slug)
	}
}

func TestCategoryDuplicateAndParentRules(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))

	parent, err := svc.Create(CategoryInput{Name: strPtr("Skincare")})
	if err != nil {
		t.Fatalf("create parent failed: %v", err)
	}
	_, err = svc.Create(CategoryInput{Name: strPtr("skincare!")})
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.Field != "slug" {
		t.Fatalf("want duplicate slug got %v", err)
	}

	child, err := svc.Create(CategoryInput{Name: strPtr("Serums"), ParentID: uintPtr(parent.ID)})
	if err != nil {
		t.Fatalf("create child failed: %v", err)
	}
	if child.Parent == nil || child.Parent.ID != parent.ID {
		t.Fatalf("child should carry its parent, got %+v", child.Parent)
	}
	if _, err := svc.Update(child.ID, CategoryInput{ParentID: uintPtr(child.ID)}); !errors.Is(err, ErrInvalidParentCategory) {
		t.Fatalf("self parent want ErrInvalidParentCategory got %v", err)
	}
	if _, err := svc.Create(CategoryInput{Name: strPtr("Orphans"), ParentID: uintPtr(999)}); !errors.Is(err, ErrParentCategoryNotFound) {
		t.Fatalf("missing parent want ErrParentCategoryNotFound got %v", err)
	}
	if err := svc.Delete(parent.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("parent with children want ErrCategoryInUse got %v", err)
	}
}

func TestCategoryListOnlyActiveSortedByName(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	for _, name := range []string{"Zinc", "Aloe", "Mist"} {
		if _, err := svc.Create(CategoryInput{Name: strPtr(name)}); err != nil {
			t.Fatalf("create %s failed: %v", name, err)
		}
	}
	hidden, err := svc.Create(CategoryInput{Name: strPtr("Hidden")})
	if err != nil {
		t.Fatalf("create hidden failed: %v", err)
	}
	if _, err := svc.Update(hidden.ID, CategoryInput{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	list, err := svc.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Aloe" || list[2].Name != "Zinc" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestCategoryWritesInvalidateCatalog(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	calls := 0
	svc.invalidate = func(context.Context) error {
		calls++
		return errors.New("redis down")
	}

	created, err := svc.Create(CategoryInput{Name: strPtr("Masks")})
	if err != nil {
		t.Fatalf("create must succeed even when invalidation fails: %v", err)
	}
	if _, err := svc.Update(created.ID, CategoryInput{Description: strPtr("Sheet and clay")}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := svc.Create(CategoryInput{Name: strPtr("masks")}); err == nil {
		t.Fatalf("duplicate name should fail")
	}
	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(created.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("want ErrCategoryNotFound got %v", err)
	}
	if calls != 3 {
		t.Fatalf("want 3 invalidations for 3 successful writes got %d", calls)
	}
}
