package recs

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/luminalib/luminalib-backend/internal/types"
)

// Interaction is one weighted (user, book) signal. A user who both borrowed
// and reviewed the same book contributes two interactions; weights for the
// same cell accumulate additively when the matrix is built.
type Interaction struct {
	UserID string
	BookID string
	Weight float64
}

const borrowWeight = 1.0

// reviewWeight maps a 1..5 rating onto [0,1], capped at 1.
func reviewWeight(rating int) float64 {
	w := float64(rating) / 5.0
	if w > 1.0 {
		w = 1.0
	}
	if w < 0 {
		w = 0
	}
	return w
}

// DataIntegrityError marks inputs that are broken rather than transient.
// Jobs must not retry on it.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string { return "data integrity: " + e.Reason }

// ExtractInteractions turns the full borrow and review history into weighted
// interaction triples. No time windowing and no deduplication.
func ExtractInteractions(borrows []*types.Borrow, reviews []*types.Review) ([]Interaction, error) {
	out := make([]Interaction, 0, len(borrows)+len(reviews))
	for _, b := range borrows {
		if b.UserID == uuid.Nil || b.BookID == uuid.Nil {
			return nil, &DataIntegrityError{Reason: fmt.Sprintf("borrow %s has a nil user or book id", b.ID)}
		}
		out = append(out, Interaction{UserID: b.UserID.String(), BookID: b.BookID.String(), Weight: borrowWeight})
	}
	for _, r := range reviews {
		if r.UserID == uuid.Nil || r.BookID == uuid.Nil {
			return nil, &DataIntegrityError{Reason: fmt.Sprintf("review %s has a nil user or book id", r.ID)}
		}
		out = append(out, Interaction{UserID: r.UserID.String(), BookID: r.BookID.String(), Weight: reviewWeight(r.Rating)})
	}
	return out, nil
}

type entry struct {
	col    int
	weight float64
}

// Matrix is a sparse user x book interaction matrix with a deterministic
// layout: rows and columns are indexed by the sorted distinct ids, so
// repeated builds over the same data produce identical shapes.
type Matrix struct {
	Users []string
	Books []string

	userIdx map[string]int
	bookIdx map[string]int
	rows    [][]entry
	cols    [][]entry
}

// NewMatrix accumulates interaction triples into a sparse matrix. Duplicate
// (user, book) pairs sum their weights.
func NewMatrix(interactions []Interaction) *Matrix {
	userSet := map[string]struct{}{}
	bookSet := map[string]struct{}{}
	for _, in := range interactions {
		userSet[in.UserID] = struct{}{}
		bookSet[in.BookID] = struct{}{}
	}
	users := make([]string, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	books := make([]string, 0, len(bookSet))
	for b := range bookSet {
		books = append(books, b)
	}
	sort.Strings(users)
	sort.Strings(books)

	m := &Matrix{
		Users:   users,
		Books:   books,
		userIdx: make(map[string]int, len(users)),
		bookIdx: make(map[string]int, len(books)),
	}
	for i, u := range users {
		m.userIdx[u] = i
	}
	for i, b := range books {
		m.bookIdx[b] = i
	}

	acc := make([]map[int]float64, len(users))
	for _, in := range interactions {
		r := m.userIdx[in.UserID]
		c := m.bookIdx[in.BookID]
		if acc[r] == nil {
			acc[r] = map[int]float64{}
		}
		acc[r][c] += in.Weight
	}

	m.rows = make([][]entry, len(users))
	m.cols = make([][]entry, len(books))
	for r, cells := range acc {
		if len(cells) == 0 {
			continue
		}
		colIdx := make([]int, 0, len(cells))
		for c := range cells {
			colIdx = append(colIdx, c)
		}
		sort.Ints(colIdx)
		row := make([]entry, 0, len(colIdx))
		for _, c := range colIdx {
			w := cells[c]
			row = append(row, entry{col: c, weight: w})
			m.cols[c] = append(m.cols[c], entry{col: r, weight: w})
		}
		m.rows[r] = row
	}
	return m
}

func (m *Matrix) NumUsers() int { return len(m.Users) }
func (m *Matrix) NumBooks() int { return len(m.Books) }

// UserRow returns the row index for a user id, or false for cold-start users
// absent from the interaction data.
func (m *Matrix) UserRow(userID string) (int, bool) {
	i, ok := m.userIdx[userID]
	return i, ok
}

// RowWeight returns the accumulated weight of one cell.
func (m *Matrix) RowWeight(row, col int) float64 {
	for _, e := range m.rows[row] {
		if e.col == col {
			return e.weight
		}
	}
	return 0
}
