package db

// KNNQuery is the input for a vector similarity search over one vector field.
type KNNQuery struct {
	IndexName    string
	VectorField  string // e.g. "combined_vector"
	Vector       []float32
	K            int
	Filter       string // optional FT pre-filter, e.g. "@category:{dress}"
	ReturnFields []string
}

// SearchResult is the output of a search.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Score is cosine similarity in [0,1] for KNN and 0 for lists.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
