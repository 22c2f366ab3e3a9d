package domain

// Space names one of the vectors stored per inventory item.
type Space string

const (
	SpaceText     Space = "text"
	SpaceImage    Space = "image"
	SpaceCombined Space = "combined"
)

// Spaces lists every stored vector space in a fixed order.
func Spaces() []Space {
	return []Space{SpaceText, SpaceImage, SpaceCombined}
}

// Valid reports whether s is a known vector space.
func (s Space) Valid() bool {
	switch s {
	case SpaceText, SpaceImage, SpaceCombined:
		return true
	}
	return false
}
