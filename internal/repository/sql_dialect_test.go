package repository

import (
	"strings"
	"testing"
)

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite operator want LIKE got %s", got)
	}
}

func TestBuildLikeConditionSQLite(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"name", "brand", " "}, []string{"tags"})
	if argCount != 3 {
		t.Fatalf("arg count want 3 got %d", argCount)
	}
	want := `name LIKE ? ESCAPE '\' OR brand LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'`
	if condition != want {
		t.Fatalf("unexpected condition: %s", condition)
	}
}

func TestBuildLikeConditionPostgres(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", []string{"description"}, []string{"tags"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if !strings.Contains(condition, "description ILIKE ?") {
		t.Fatalf("condition should contain description ILIKE, got %s", condition)
	}
	if !strings.Contains(condition, "CAST(tags AS TEXT) ILIKE ?") {
		t.Fatalf("condition should cast tags to text, got %s", condition)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escaped keyword: %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%serum%", 3)
	if len(args) != 3 {
		t.Fatalf("want 3 args got %d", len(args))
	}
	for _, arg := range args {
		if arg != "%serum%" {
			t.Fatalf("unexpected arg: %v", arg)
		}
	}
}
