package recs

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ALSConfig holds the fixed hyperparameters for the implicit-feedback
// factorization. These are not tuned at runtime; the whole model is refit
// from the full interaction matrix on every scoring call.
type ALSConfig struct {
	Factors        int
	Iterations     int
	Regularization float64
	Alpha          float64
	Seed           int64
}

func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		Factors:        64,
		Iterations:     10,
		Regularization: 0.01,
		Alpha:          40.0,
		Seed:           42,
	}
}

// ALSRecommender factorizes the interaction matrix with alternating least
// squares over implicit feedback (Hu/Koren/Volinsky confidence weighting:
// c = 1 + alpha*w) and scores unseen books for one user row.
type ALSRecommender struct {
	cfg ALSConfig
}

func NewALSRecommender(cfg ALSConfig) *ALSRecommender {
	if cfg.Factors <= 0 {
		cfg = DefaultALSConfig()
	}
	return &ALSRecommender{cfg: cfg}
}

func (r *ALSRecommender) Name() string { return "ml_als" }

// ScoreWithMatrix fits the model and returns up to limit scored books for the
// given user row. Books the user already interacted with are filtered before
// candidate selection; the exclusion set is applied afterwards, mirroring the
// 2x-limit candidate request discipline. A degenerate matrix (no rows or no
// columns) yields an empty result instead of a degenerate fit.
func (r *ALSRecommender) ScoreWithMatrix(m *Matrix, userRow int, exclude map[string]bool, limit int) []ScoredBook {
	if m == nil || m.NumUsers() == 0 || m.NumBooks() == 0 {
		return nil
	}
	if userRow < 0 || userRow >= m.NumUsers() {
		return nil
	}

	userF, bookF := r.fit(m)

	liked := make(map[int]bool, len(m.rows[userRow]))
	for _, e := range m.rows[userRow] {
		liked[e.col] = true
	}

	x := userF.RowView(userRow)
	candidates := make([]ScoredBook, 0, m.NumBooks())
	for c := 0; c < m.NumBooks(); c++ {
		if liked[c] {
			continue
		}
		candidates = append(candidates, ScoredBook{
			BookID: m.Books[c],
			Score:  mat.Dot(x, bookF.RowView(c)),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if limit > 0 && len(candidates) > 2*limit {
		candidates = candidates[:2*limit]
	}

	results := make([]ScoredBook, 0, limit)
	for _, cand := range candidates {
		if exclude[cand.BookID] {
			continue
		}
		results = append(results, cand)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

func (r *ALSRecommender) fit(m *Matrix) (userF, bookF *mat.Dense) {
	f := r.cfg.Factors
	rng := rand.New(rand.NewSource(r.cfg.Seed))
	userF = randomFactors(rng, m.NumUsers(), f)
	bookF = randomFactors(rng, m.NumBooks(), f)

	for it := 0; it < r.cfg.Iterations; it++ {
		r.solveSide(m.rows, bookF, userF)
		r.solveSide(m.cols, userF, bookF)
	}
	return userF, bookF
}

// solveSide recomputes the factor rows of X holding Y fixed, one normal
// equation solve per row: (YtY + reg*I + Yt(C-I)Y) x = Yt C p.
func (r *ALSRecommender) solveSide(lists [][]entry, y *mat.Dense, x *mat.Dense) {
	f := r.cfg.Factors
	gram := r.gram(y)

	a := mat.NewSymDense(f, nil)
	b := mat.NewVecDense(f, nil)
	sol := mat.NewVecDense(f, nil)
	for row := range lists {
		if len(lists[row]) == 0 {
			continue
		}
		a.CopySym(gram)
		b.Zero()
		for _, e := range lists[row] {
			yv := y.RowView(e.col)
			conf := 1.0 + r.cfg.Alpha*e.weight
			a.SymRankOne(a, conf-1.0, yv)
			b.AddScaledVec(b, conf, yv)
		}

		var ch mat.Cholesky
		if ch.Factorize(a) {
			if err := ch.SolveVecTo(sol, b); err == nil {
				x.SetRow(row, rawVec(sol))
				continue
			}
		}
		var dense mat.VecDense
		if err := dense.SolveVec(a, b); err == nil {
			x.SetRow(row, rawVec(&dense))
		}
	}
}

// gram returns YtY + reg*I.
func (r *ALSRecommender) gram(y *mat.Dense) *mat.SymDense {
	rows, f := y.Dims()
	g := mat.NewSymDense(f, nil)
	for i := 0; i < rows; i++ {
		g.SymRankOne(g, 1.0, y.RowView(i))
	}
	for i := 0; i < f; i++ {
		g.SetSym(i, i, g.At(i, i)+r.cfg.Regularization)
	}
	return g
}

func randomFactors(rng *rand.Rand, rows, f int) *mat.Dense {
	data := make([]float64, rows*f)
	for i := range data {
		data[i] = 0.01 * rng.Float64()
	}
	return mat.NewDense(rows, f, data)
}

func rawVec(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
