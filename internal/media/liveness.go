package media

import "context"

// LivenessScorer returns a confidence in [0,1] that a selfie shows a live
// person.
type LivenessScorer interface {
	Score(ctx context.Context, image []byte) (float64, error)
}

// FixedScorer returns the same confidence for every image. It stands in
// until a real provider is configured.
type FixedScorer struct {
	Confidence float64
}

func (f FixedScorer) Score(context.Context, []byte) (float64, error) {
	return f.Confidence, nil
}
