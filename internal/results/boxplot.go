package results

import (
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
)

// BoxSummary holds the statistics drawn by one box of a box plot. A summary
// of an empty series has Count 0 and every other field zero.
type BoxSummary struct {
	Count        int       `json:"count"`
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	Mean         float64   `json:"mean"`
	LowerWhisker float64   `json:"lowerWhisker"`
	UpperWhisker float64   `json:"upperWhisker"`
	Outliers     []float64 `json:"outliers"`
}

// IQR is the interquartile range.
func (b BoxSummary) IQR() float64 {
	return b.Q3 - b.Q1
}

// Summarize computes the box statistics of values. Quartiles use linear
// interpolation; whiskers end at the most extreme values within
// 1.5 IQR of the box and everything beyond them is an outlier.
func Summarize(values []float64) BoxSummary {
	if len(values) == 0 {
		return BoxSummary{Outliers: []float64{}}
	}

	sorted := mathutil.Sorted(values)
	s := BoxSummary{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     mathutil.Quantile(sorted, 0.25),
		Median: mathutil.Quantile(sorted, 0.5),
		Q3:     mathutil.Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   mathutil.Mean(sorted),
	}

	fence := constants.OutlierIQRFactor * s.IQR()
	lowFence, highFence := s.Q1-fence, s.Q3+fence

	s.LowerWhisker, s.UpperWhisker = s.Q1, s.Q3
	s.Outliers = []float64{}
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			s.Outliers = append(s.Outliers, v)
			continue
		}
		if v < s.LowerWhisker {
			s.LowerWhisker = v
		}
		if v > s.UpperWhisker {
			s.UpperWhisker = v
		}
	}
	return s
}
