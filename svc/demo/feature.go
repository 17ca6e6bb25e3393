package demo

import "fmt"

// Feature identifies a demo-metered generation kind.
type Feature string

const (
	FeatureBlog  Feature = "blog"
	FeatureMovie Feature = "movie"
)

// ParseFeature validates a feature name from user input.
func ParseFeature(s string) (Feature, error) {
	switch Feature(s) {
	case FeatureBlog:
		return FeatureBlog, nil
	case FeatureMovie:
		return FeatureMovie, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
	}
}

// keyPrefix returns the counter namespace for the feature. The two features
// have always used distinct prefixes, so their daily counters never collide.
func (f Feature) keyPrefix() string {
	if f == FeatureMovie {
		return "movie-demo"
	}
	return "demo"
}
