package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestUsernameFromEmail(t *testing.T) {
	cases := map[string]string{
		"alice@student.edu":        "alice",
		" Jean.Dupont@Student.EDU": "jean.dupont",
		"odd@name@student.edu":     "odd",
		"no-at-sign":               "no-at-sign",
	}
	for in, want := range cases {
		if got := UsernameFromEmail(in); got != want {
			t.Errorf("UsernameFromEmail(%q) = %q，期望 %q", in, got, want)
		}
	}
}

func TestStudentDirectory_Resolve(t *testing.T) {
	repo, store := newTestRepo()
	dir := NewStudentDirectory(repo, zap.NewNop())

	user, created, err := dir.Resolve(context.Background(), "alice@student.edu")
	if err != nil || !created {
		t.Fatalf("首次解析应创建学生，实际: created=%v err=%v", created, err)
	}

	again, created, err := dir.Resolve(context.Background(), "ALICE@student.edu")
	if err != nil || created || again.UserID != user.UserID {
		t.Fatalf("再次解析应返回同一学生，实际: created=%v err=%v", created, err)
	}
	if len(store.users) != 1 {
		t.Errorf("期望 1 个用户，实际: %d", len(store.users))
	}
}

func TestStudentDirectory_FindAndCreate(t *testing.T) {
	repo, store := newTestRepo()
	dir := NewStudentDirectory(repo, zap.NewNop())
	seedStudent(store, "bob")

	if _, err := dir.FindByEmail(context.Background(), "nobody@student.edu"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
	if _, err := dir.Create(context.Background(), "bob", "bob.other@student.edu"); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("期望 ErrDuplicateUsername，实际: %v", err)
	}
}
