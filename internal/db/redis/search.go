package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/threadress/internal/db"
)

const scoreField = "__vector_score"

// SearchKNN runs a KNN query over one vector field.
// Cosine distance is converted to similarity max(0, 1-d).
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, fmt.Errorf("index name is required")
	case q.VectorField == "":
		return nil, fmt.Errorf("vector field is required")
	case len(q.Vector) == 0:
		return nil, fmt.Errorf("vector is required")
	case q.K <= 0:
		return nil, fmt.Errorf("k must be positive")
	}

	pre := "*"
	if q.Filter != "" {
		pre = "(" + q.Filter + ")"
	}
	query := fmt.Sprintf("%s=>[KNN %d @%s $BLOB AS %s]", pre, q.K, q.VectorField, scoreField)

	args := []string{q.IndexName, query}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1), scoreField)
		args = append(args, q.ReturnFields...)
	}
	args = append(args,
		"SORTBY", scoreField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseEntries(raw, true)
}

// SearchList pages through documents matching query without scoring.
func (s *Store) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	args := []string{index, query, "LIMIT", strconv.Itoa(offset), strconv.Itoa(limit)}
	if len(fields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}
	args = append(args, "DIALECT", "2")

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseEntries(raw, false)
}

// parseEntries reads the RESP2 reply [total, key1, [f, v, ...], key2, [...], ...].
func parseEntries(raw []rueidis.RedisMessage, scored bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: total: %w", db.ErrBadResponse, err)}
	}
	if (len(raw)-1)%2 != 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: odd reply length %d", db.ErrBadResponse, len(raw))}
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		entry, err := parseEntry(raw[i], raw[i+1], scored)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: entry %d: %w", db.ErrBadResponse, (i-1)/2, err)}
		}
		entries = append(entries, entry)
	}
	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseEntry decodes one key and its field list. A scored entry must carry a
// numeric distance.
func parseEntry(rawKey, rawFields rueidis.RedisMessage, scored bool) (db.SearchEntry, error) {
	key, err := rawKey.ToString()
	if err != nil {
		return db.SearchEntry{}, fmt.Errorf("key: %w", err)
	}
	pairs, err := rawFields.ToArray()
	if err != nil {
		return db.SearchEntry{}, fmt.Errorf("fields of %s: %w", key, err)
	}
	fields, err := parseFieldPairs(pairs)
	if err != nil {
		return db.SearchEntry{}, fmt.Errorf("fields of %s: %w", key, err)
	}
	entry := db.SearchEntry{Key: key, Fields: fields}

	v, ok := fields[scoreField]
	delete(fields, scoreField)
	if !scored {
		return entry, nil
	}
	if !ok {
		return db.SearchEntry{}, fmt.Errorf("%s: missing %s", key, scoreField)
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return db.SearchEntry{}, fmt.Errorf("%s: score %q: %w", key, v, err)
	}
	entry.Score = max(0, 1-d)
	return entry, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) (map[string]string, error) {
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("odd field list length %d", len(fields))
	}
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			return nil, fmt.Errorf("field name %d: %w", j/2, err)
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		m[name] = value
	}
	return m, nil
}

// vectorToBytes encodes a vector as little-endian FLOAT32, the FT blob format.
func vectorToBytes(v []float32) string {
	return rueidis.BinaryString(VectorBytes(v))
}

// VectorBytes is the raw FLOAT32 little-endian encoding used in hash fields.
func VectorBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
