// Package avatar models the three-part character a new user builds during
// onboarding and the image asset each combination maps to.
package avatar

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Choices per category. Indices into these slices are what clients send.
var (
	HairOptions    = []string{"Bald", "Short", "Long"}
	ClothesOptions = []string{"Tshirt", "Sport", "Formal"}
	FaceOptions    = []string{"Smile", "Calm", "Cute"}
)

// Selection holds one index per category, each in [0, 2].
type Selection struct {
	Hair    int `json:"hair"`
	Clothes int `json:"clothes"`
	Face    int `json:"face"`
}

// Options is the catalogue presented when onboarding begins.
type Options struct {
	Hair    []string `json:"hair"`
	Clothes []string `json:"clothes"`
	Face    []string `json:"face"`
}

func Catalogue() Options {
	return Options{
		Hair:    append([]string(nil), HairOptions...),
		Clothes: append([]string(nil), ClothesOptions...),
		Face:    append([]string(nil), FaceOptions...),
	}
}

// Validate checks every index is inside its category.
func (s Selection) Validate() error {
	if s.Hair < 0 || s.Hair >= len(HairOptions) {
		return fmt.Errorf("hair index %d out of range", s.Hair)
	}
	if s.Clothes < 0 || s.Clothes >= len(ClothesOptions) {
		return fmt.Errorf("clothes index %d out of range", s.Clothes)
	}
	if s.Face < 0 || s.Face >= len(FaceOptions) {
		return fmt.Errorf("face index %d out of range", s.Face)
	}
	return nil
}

// AssetKey is the composite image name, "char" followed by the 1-based
// hair, clothes and face indices.
func (s Selection) AssetKey() string {
	return DeriveKey(s.Hair, s.Clothes, s.Face)
}

func DeriveKey(hair, clothes, face int) string {
	return "char" + strconv.Itoa(hair+1) + strconv.Itoa(clothes+1) + strconv.Itoa(face+1)
}

// Layers returns the preview layer names drawn on top of each other.
func (s Selection) Layers() (hair, body, face string) {
	return "Hair" + strconv.Itoa(s.Hair+1), "Body" + strconv.Itoa(s.Clothes+1), "Face" + strconv.Itoa(s.Face+1)
}

// Describe returns the human readable names of the selection.
func (s Selection) Describe() (hair, clothes, face string) {
	if s.Validate() != nil {
		return "", "", ""
	}
	return HairOptions[s.Hair], ClothesOptions[s.Clothes], FaceOptions[s.Face]
}

// IntN is satisfied by *rand.Rand from math/rand/v2.
type IntN interface {
	IntN(n int) int
}

// Randomize draws every category independently and uniformly. A nil source
// uses the global generator.
func Randomize(src IntN) Selection {
	draw := rand.IntN
	if src != nil {
		draw = src.IntN
	}
	return Selection{
		Hair:    draw(len(HairOptions)),
		Clothes: draw(len(ClothesOptions)),
		Face:    draw(len(FaceOptions)),
	}
}
