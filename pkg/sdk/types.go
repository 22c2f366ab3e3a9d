package threadress

import "time"

// Space selects the query vector used for retrieval.
type Space string

// Space constants.
const (
	SpaceText     Space = "text"
	SpaceImage    Space = "image"
	SpaceCombined Space = "combined"
)

// Query is one shopper request. Text or ImageRef must be set.
// K defaults to 10, Space to SpaceCombined.
type Query struct {
	Text     string
	ImageRef string
	K        int
	Space    Space
}

// Item is one sellable product. ID, a title or description and ImageURL are
// required for indexing. Price <= 0 means unknown.
type Item struct {
	ID          string
	Title       string
	Description string
	Brand       string
	Category    string
	Color       string
	Material    string
	Size        string
	Style       string
	Occasion    string
	Season      string
	Tags        []string

	StoreName string
	StoreID   int64
	Address   string
	Lat       float64
	Lng       float64

	Price    float64
	Currency string

	ImageURL      string
	MainImageURL  string
	HoverImageURL string
	ProductURL    string

	SyncedAt time.Time // set by the index, ignored on Sync
}

// Hit is a ranked search result.
type Hit struct {
	Item      Item
	Store     string // canonical store name
	ImageURL  string // best valid display image, may be empty
	Score     float64
	BaseScore float64
	Signals   map[string]float64 // re-ranking contributions by signal name
}

// StyleContext lists what the query understanding detected.
type StyleContext struct {
	Occasion string
	Mood     string
	Fit      string
	Color    string
	Material string
	Style    string
	Season   string
	Vibe     string
}

// VisualAnalysis summarizes an image query.
type VisualAnalysis struct {
	DominantColors []string
	Style          string
	Occasion       string
	Mood           string
}

// Result is a ranked hit list plus what the pipeline understood.
type Result struct {
	Hits           []Hit
	EnhancedQuery  string
	StyleContext   *StyleContext
	VisualAnalysis *VisualAnalysis
	Rewrites       []string // multi-query only
}

// SyncReport counts the outcome of Sync. Upserted + Errors == Total.
type SyncReport struct {
	Upserted int
	Errors   int
	Total    int
	Failures []SyncFailure
}

// SyncFailure is one item Sync could not write.
type SyncFailure struct {
	ID    string
	Batch int // 0 when rejected before batching
	Err   error
}

// ItemPage is one page of the inventory.
type ItemPage struct {
	Items      []Item
	Total      int
	NextOffset int // -1 on the last page
}
