package understanding

import (
	"context"
	"sync"
)

type mockEmbedder struct {
	mu         sync.Mutex
	textDim    int
	imageDim   int
	texts      []string
	images     []string
	degradeAll bool
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{textDim: 4, imageDim: 6}
}

func (m *mockEmbedder) EmbedTextSingle(_ context.Context, text string) ([]float32, bool) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.degradeAll {
		return make([]float32, m.textDim), true
	}
	v := make([]float32, m.textDim)
	v[len(text)%m.textDim] = 1
	return v, false
}

func (m *mockEmbedder) EmbedImageSingle(_ context.Context, ref string) ([]float32, bool) {
	m.mu.Lock()
	m.images = append(m.images, ref)
	m.mu.Unlock()

	if m.degradeAll {
		return make([]float32, m.imageDim), true
	}
	v := make([]float32, m.imageDim)
	v[0] = 1
	return v, false
}

func (m *mockEmbedder) TextDim() int  { return m.textDim }
func (m *mockEmbedder) ImageDim() int { return m.imageDim }

func (m *mockEmbedder) sawText(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.texts {
		if t == s {
			return true
		}
	}
	return false
}
