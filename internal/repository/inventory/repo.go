package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/threadress/internal/db"
	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
)

// store is the consumer interface for the inventory index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
}

// Config describes the index layout.
type Config struct {
	IndexName   string
	KeyPrefix   string
	TextDim     int
	ImageDim    int
	CombinedDim int
	HNSWM       int
	HNSWEF      int
	Timeout     time.Duration // bounds every index call; 0 = caller's context only
}

// Dim returns the declared dimensionality of a space.
func (c Config) Dim(s domain.Space) int {
	switch s {
	case domain.SpaceText:
		return c.TextDim
	case domain.SpaceImage:
		return c.ImageDim
	case domain.SpaceCombined:
		return c.CombinedDim
	}
	return 0
}

// Point is one item with all of its vectors, ready to be written.
type Point struct {
	Item    catalog.Item
	Vectors map[domain.Space][]float32
}

// Repo is the vector index boundary over Redis/Valkey FT.
type Repo struct {
	store store
	cfg   Config
}

// New creates an inventory repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

func (r *Repo) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.Timeout)
}

// Definition builds the FT schema: payload filters plus one HNSW field per space.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	b := db.NewIndex(r.cfg.IndexName).
		Prefix(r.cfg.KeyPrefix).
		Tag(fieldCategory, "|").
		Tag(fieldBrand, "|").
		Tag(fieldStoreName, "|").
		Tag(fieldTags, ",").
		Numeric(fieldPrice).
		Numeric(fieldStoreID)
	for _, s := range domain.Spaces() {
		b = b.VectorHNSW(vectorField(s), r.cfg.Dim(s), db.DistanceCosine, r.cfg.HNSWM, r.cfg.HNSWEF)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build index definition: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the index when it does not exist yet. Idempotent.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.cfg.IndexName, err)
	}
	if exists {
		return nil
	}

	def, err := r.Definition()
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// гонка двух инстансов при старте
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.cfg.IndexName, err)
	}
	return nil
}

// Upsert writes points in one pipelined round trip. Every point must carry all
// three vectors at their declared dimensionality, otherwise nothing is written.
func (r *Repo) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	items := make([]db.HashSetItem, 0, len(points))
	for i := range points {
		p := &points[i]
		if err := r.validatePoint(p); err != nil {
			return err
		}
		fields := buildHashFields(&p.Item)
		for _, s := range domain.Spaces() {
			fields[vectorField(s)] = vectorToBytes(p.Vectors[s])
		}
		items = append(items, db.HashSetItem{Key: r.key(p.Item.ID), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(items), err)
	}
	return nil
}

func (r *Repo) validatePoint(p *Point) error {
	if p.Item.ID == "" {
		return domain.NewValidationError("id", "point has no id")
	}
	for _, s := range domain.Spaces() {
		v, ok := p.Vectors[s]
		if !ok || len(v) == 0 {
			return domain.NewValidationError(vectorField(s), fmt.Sprintf("point %s is missing the %s vector", p.Item.ID, s))
		}
		if want := r.cfg.Dim(s); want > 0 && len(v) != want {
			return domain.NewValidationError(vectorField(s),
				fmt.Sprintf("point %s: expected %d dims, got %d", p.Item.ID, want, len(v)))
		}
	}
	return nil
}

// Search runs KNN over one vector space. Scores are cosine similarity in [0,1].
func (r *Repo) Search(ctx context.Context, space domain.Space, vector []float32, limit int) ([]hit.Raw, error) {
	if !space.Valid() {
		return nil, domain.NewValidationError("space", fmt.Sprintf("unknown vector space %q", space))
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		VectorField:  vectorField(space),
		Vector:       vector,
		K:            limit,
		ReturnFields: payloadFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn %s: %w", space, err)
	}

	out := make([]hit.Raw, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, hit.Raw{
			Item:  parseHashFields(r.idFromKey(e.Key), e.Fields),
			Score: e.Score,
		})
	}
	return out, nil
}

// Scroll lists stored items without vectors. Returns the page and the total count.
func (r *Repo) Scroll(ctx context.Context, offset, limit int) ([]catalog.Item, int, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()
	res, err := r.store.SearchList(ctx, r.cfg.IndexName, "*", offset, limit, payloadFields)
	if err != nil {
		return nil, 0, fmt.Errorf("scroll %s: %w", r.cfg.IndexName, err)
	}

	items := make([]catalog.Item, 0, len(res.Entries))
	for _, e := range res.Entries {
		items = append(items, parseHashFields(r.idFromKey(e.Key), e.Fields))
	}
	return items, res.Total, nil
}

// Get returns one stored item.
func (r *Repo) Get(ctx context.Context, id string) (catalog.Item, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return catalog.Item{}, domain.ErrNotFound
		}
		return catalog.Item{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	return parseHashFields(id, m), nil
}

// SetPayload overwrites payload fields of an existing item. Vectors and the id
// cannot be changed this way; numeric fields must parse as numbers.
func (r *Repo) SetPayload(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	for k, v := range fields {
		if err := validatePayloadField(k, v); err != nil {
			return err
		}
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func validatePayloadField(name, value string) error {
	switch {
	case isVectorField(name):
		return domain.NewValidationError(name, "vectors are written by upsert only")
	case name == fieldID:
		return domain.NewValidationError(name, "id is immutable")
	case !slices.Contains(payloadFields, name):
		return domain.NewValidationError(name, "unknown payload field")
	}
	if isNumericField(name) {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return domain.NewValidationError(name, fmt.Sprintf("%q is not a number", value))
		}
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.cfg.KeyPrefix + id
}

func (r *Repo) idFromKey(key string) string {
	return strings.TrimPrefix(key, r.cfg.KeyPrefix)
}
