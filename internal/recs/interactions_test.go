package recs

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luminalib/luminalib-backend/internal/types"
)

func mkBorrow(user, book uuid.UUID) *types.Borrow {
	return &types.Borrow{ID: uuid.New(), UserID: user, BookID: book, BorrowedAt: time.Now()}
}

func mkReview(user, book uuid.UUID, rating int) *types.Review {
	return &types.Review{ID: uuid.New(), UserID: user, BookID: book, Rating: rating}
}

func TestExtractInteractions_Weights(t *testing.T) {
	user := uuid.New()
	book := uuid.New()

	ints, err := ExtractInteractions(
		[]*types.Borrow{mkBorrow(user, book)},
		[]*types.Review{mkReview(user, book, 4)},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ints) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(ints))
	}
	if ints[0].Weight != 1.0 {
		t.Fatalf("borrow weight = %v, want 1.0", ints[0].Weight)
	}
	if ints[1].Weight != 0.8 {
		t.Fatalf("review weight = %v, want 0.8", ints[1].Weight)
	}
}

func TestExtractInteractions_RatingCappedAtOne(t *testing.T) {
	ints, err := ExtractInteractions(nil, []*types.Review{mkReview(uuid.New(), uuid.New(), 9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ints[0].Weight != 1.0 {
		t.Fatalf("capped weight = %v, want 1.0", ints[0].Weight)
	}
}

func TestExtractInteractions_NilIDIsIntegrityError(t *testing.T) {
	_, err := ExtractInteractions([]*types.Borrow{mkBorrow(uuid.Nil, uuid.New())}, nil)
	if err == nil {
		t.Fatalf("expected error for nil user id")
	}
	var die *DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("expected DataIntegrityError, got %T", err)
	}
}

func TestNewMatrix_AccumulatesDuplicateCells(t *testing.T) {
	user := uuid.New()
	book := uuid.New()
	ints, err := ExtractInteractions(
		[]*types.Borrow{mkBorrow(user, book)},
		[]*types.Review{mkReview(user, book, 5)},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := NewMatrix(ints)
	if m.NumUsers() != 1 || m.NumBooks() != 1 {
		t.Fatalf("expected 1x1 matrix, got %dx%d", m.NumUsers(), m.NumBooks())
	}
	row, ok := m.UserRow(user.String())
	if !ok {
		t.Fatalf("expected user row")
	}
	if w := m.RowWeight(row, 0); w != 2.0 {
		t.Fatalf("accumulated weight = %v, want 2.0", w)
	}
}

func TestNewMatrix_DeterministicLayout(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	b1, b2 := uuid.New(), uuid.New()

	forward := []Interaction{
		{UserID: u1.String(), BookID: b1.String(), Weight: 1},
		{UserID: u2.String(), BookID: b2.String(), Weight: 1},
	}
	reversed := []Interaction{forward[1], forward[0]}

	m1 := NewMatrix(forward)
	m2 := NewMatrix(reversed)
	for i := range m1.Users {
		if m1.Users[i] != m2.Users[i] {
			t.Fatalf("user ordering differs at %d: %s vs %s", i, m1.Users[i], m2.Users[i])
		}
	}
	for i := range m1.Books {
		if m1.Books[i] != m2.Books[i] {
			t.Fatalf("book ordering differs at %d: %s vs %s", i, m1.Books[i], m2.Books[i])
		}
	}
}

func TestUserRow_ColdStartUserAbsent(t *testing.T) {
	m := NewMatrix([]Interaction{{UserID: uuid.New().String(), BookID: uuid.New().String(), Weight: 1}})
	if _, ok := m.UserRow(uuid.New().String()); ok {
		t.Fatalf("expected cold-start user to be absent from the matrix")
	}
}
