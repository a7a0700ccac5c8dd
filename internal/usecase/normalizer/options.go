package normalizer

type Option func(*Normalizer)

// Threshold is the declared size above which files are re-encoded.
func Threshold(size int64) Option {
	return func(n *Normalizer) {
		if size > 0 {
			n.threshold = size
		}
	}
}

func Quality(q int) Option {
	return func(n *Normalizer) {
		if q > 0 && q <= 100 {
			n.quality = q
		}
	}
}
