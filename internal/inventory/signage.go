package inventory

// Signage is the coarse availability shown in schedule listings.
type Signage string

const (
	SignageLots Signage = "lots"
	SignageFew  Signage = "few"
	SignageNone Signage = "none"
)

const fewThreshold = 0.10

func Sign(available, total int) Signage {
	if available <= 0 || total <= 0 {
		return SignageNone
	}
	if float64(available)/float64(total) <= fewThreshold {
		return SignageFew
	}
	return SignageLots
}
