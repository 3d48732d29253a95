package domain

// RatingSample is one rating row used for statistics.
type RatingSample struct {
	ReviewID   string
	AspectName string
	Rating     int
}

// ReviewStatistics aggregates every rating of the reviews a user wrote or
// received. The aspect fields are nil when there are no ratings.
type ReviewStatistics struct {
	TotalReviews       int         `json:"total_reviews"`
	AverageRating      float64     `json:"average_rating"`
	HighestRating      int         `json:"highest_rating"`
	LowestRating       int         `json:"lowest_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	MostRatedAspect    *string     `json:"most_rated_aspect"`
	LeastRatedAspect   *string     `json:"least_rated_aspect"`
}

// ComputeStatistics aggregates samples in the order given.
//
// TotalReviews counts distinct review ids among the samples, so a review
// without ratings does not contribute. Ties for most and least rated aspect
// go to the aspect seen first.
func ComputeStatistics(samples []RatingSample) ReviewStatistics {
	stats := ReviewStatistics{RatingDistribution: map[int]int{}}
	if len(samples) == 0 {
		return stats
	}

	reviews := make(map[string]struct{})
	aspectCounts := make(map[string]int)
	var aspectOrder []string
	sum := 0
	stats.HighestRating = samples[0].Rating
	stats.LowestRating = samples[0].Rating

	for _, s := range samples {
		reviews[s.ReviewID] = struct{}{}
		sum += s.Rating
		stats.HighestRating = max(stats.HighestRating, s.Rating)
		stats.LowestRating = min(stats.LowestRating, s.Rating)
		stats.RatingDistribution[s.Rating]++

		if _, seen := aspectCounts[s.AspectName]; !seen {
			aspectOrder = append(aspectOrder, s.AspectName)
		}
		aspectCounts[s.AspectName]++
	}

	stats.TotalReviews = len(reviews)
	stats.AverageRating = RoundToTenth(float64(sum) / float64(len(samples)))

	most, least := aspectOrder[0], aspectOrder[0]
	for _, name := range aspectOrder[1:] {
		if aspectCounts[name] > aspectCounts[most] {
			most = name
		}
		if aspectCounts[name] < aspectCounts[least] {
			least = name
		}
	}
	stats.MostRatedAspect = &most
	stats.LeastRatedAspect = &least

	return stats
}
